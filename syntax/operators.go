// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// RedirOperator is the type of a redirection operator, like ">>".
type RedirOperator Token

const (
	RdrOut   RedirOperator = RedirOperator(GTR)
	AppOut   RedirOperator = RedirOperator(SHR)
	RdrIn    RedirOperator = RedirOperator(LSS)
	RdrInOut RedirOperator = RedirOperator(RDRINOUT)
	DplIn    RedirOperator = RedirOperator(DPLIN)
	DplOut   RedirOperator = RedirOperator(DPLOUT)
	ClbOut   RedirOperator = RedirOperator(CLBOUT)
	Hdoc     RedirOperator = RedirOperator(SHL)
	DashHdoc RedirOperator = RedirOperator(DHEREDOC)
	WordHdoc RedirOperator = RedirOperator(WHEREDOC)
	RdrAll   RedirOperator = RedirOperator(RDRALL)
	AppAll   RedirOperator = RedirOperator(APPALL)
)

// BinCmdOperator is the type of a binary command operator, like "&&".
type BinCmdOperator Token

const (
	AndStmt BinCmdOperator = BinCmdOperator(LAND)
	OrStmt  BinCmdOperator = BinCmdOperator(LOR)
	Pipe    BinCmdOperator = BinCmdOperator(OR)
	PipeAll BinCmdOperator = BinCmdOperator(PIPEALL)
)

// CaseOperator is the type of a case clause pattern terminator, like ";;".
type CaseOperator Token

const (
	DblSemicolon CaseOperator = CaseOperator(DSEMICOLON)
	SemiFall     CaseOperator = CaseOperator(SEMIFALL)
	DblSemiFall  CaseOperator = CaseOperator(DSEMIFALL)
)

// ParExpOperator is the type of a parameter expansion operator, like "%%".
type ParExpOperator Token

const (
	SubstAdd       ParExpOperator = ParExpOperator(ADD)
	SubstColAdd    ParExpOperator = ParExpOperator(CADD)
	SubstSub       ParExpOperator = ParExpOperator(SUB)
	SubstColSub    ParExpOperator = ParExpOperator(CSUB)
	SubstQuest     ParExpOperator = ParExpOperator(QUEST)
	SubstColQuest  ParExpOperator = ParExpOperator(CQUEST)
	SubstAssgn     ParExpOperator = ParExpOperator(ASSIGN)
	SubstColAssgn  ParExpOperator = ParExpOperator(CASSIGN)
	RemSmallSuffix ParExpOperator = ParExpOperator(REM)
	RemLargeSuffix ParExpOperator = ParExpOperator(DREM)
	RemSmallPrefix ParExpOperator = ParExpOperator(HASH)
	RemLargePrefix ParExpOperator = ParExpOperator(DHASH)
	UpperFirst     ParExpOperator = ParExpOperator(XOR)
	UpperAll       ParExpOperator = ParExpOperator(DXOR)
	LowerFirst     ParExpOperator = ParExpOperator(COMMA)
	LowerAll       ParExpOperator = ParExpOperator(DCOMMA)
)

// GlobOperator is the type of an extended globbing operator, like "@(".
type GlobOperator Token

const (
	GlobZeroOrOne  GlobOperator = GlobOperator(GQUEST)
	GlobZeroOrMore GlobOperator = GlobOperator(GMUL)
	GlobOneOrMore  GlobOperator = GlobOperator(GADD)
	GlobOne        GlobOperator = GlobOperator(GAT)
	GlobExcept     GlobOperator = GlobOperator(GNOT)
)

// ProcOperator is the type of a process substitution operator, like "<(".
type ProcOperator Token

const (
	CmdIn  ProcOperator = ProcOperator(CMDIN)
	CmdOut ProcOperator = ProcOperator(CMDOUT)

	// CmdInTemp marks a zsh-only "=(...)" process substitution; posh's
	// lexer and parser never produce it.
	CmdInTemp ProcOperator = -1
)

// UnTestOperator is the type of a unary test operator, used in "[[ ]]"
// and "test"/"[" expressions.
type UnTestOperator Token

const (
	TsNot     UnTestOperator = UnTestOperator(NOT)
	TsExists  UnTestOperator = UnTestOperator(TEXISTS)
	TsRegFile UnTestOperator = UnTestOperator(TREGFILE)
	TsDirect  UnTestOperator = UnTestOperator(TDIRECT)
	TsCharSp  UnTestOperator = UnTestOperator(TCHARSP)
	TsBlckSp  UnTestOperator = UnTestOperator(TBLCKSP)
	TsNmPipe  UnTestOperator = UnTestOperator(TNMPIPE)
	TsSocket  UnTestOperator = UnTestOperator(TSOCKET)
	TsSmbLink UnTestOperator = UnTestOperator(TSMBLINK)
	TsGIDSet  UnTestOperator = UnTestOperator(TSGIDSET)
	TsUIDSet  UnTestOperator = UnTestOperator(TSUIDSET)
	TsRead    UnTestOperator = UnTestOperator(TREAD)
	TsWrite   UnTestOperator = UnTestOperator(TWRITE)
	TsExec    UnTestOperator = UnTestOperator(TEXEC)
	TsNoEmpty UnTestOperator = UnTestOperator(TNOEMPTY)
	TsFdTerm  UnTestOperator = UnTestOperator(TFDTERM)
	TsEmpStr  UnTestOperator = UnTestOperator(TEMPSTR)
	TsNempStr UnTestOperator = UnTestOperator(TNEMPSTR)
	TsOptSet  UnTestOperator = UnTestOperator(TOPTSET)
	TsVarSet  UnTestOperator = UnTestOperator(TVARSET)
	TsRefVar  UnTestOperator = UnTestOperator(TNRFVAR)
)

// BinTestOperator is the type of a binary test operator, used in "[[ ]]"
// and "test"/"[" expressions.
type BinTestOperator Token

const (
	AndTest   BinTestOperator = BinTestOperator(LAND)
	OrTest    BinTestOperator = BinTestOperator(LOR)
	TsAssgn   BinTestOperator = BinTestOperator(ASSIGN)
	TsEqual   BinTestOperator = BinTestOperator(EQL)
	TsNequal  BinTestOperator = BinTestOperator(NEQ)
	TsReMatch BinTestOperator = BinTestOperator(TREMATCH)
	TsNewer   BinTestOperator = BinTestOperator(TNEWER)
	TsOlder   BinTestOperator = BinTestOperator(TOLDER)
	TsDevIno  BinTestOperator = BinTestOperator(TDEVIND)
	TsEql     BinTestOperator = BinTestOperator(TEQL)
	TsNeq     BinTestOperator = BinTestOperator(TNEQ)
	TsLeq     BinTestOperator = BinTestOperator(TLEQ)
	TsGeq     BinTestOperator = BinTestOperator(TGEQ)
	TsLss     BinTestOperator = BinTestOperator(TLSS)
	TsGtr     BinTestOperator = BinTestOperator(TGTR)
	TsBefore  BinTestOperator = BinTestOperator(LSS)
	TsAfter   BinTestOperator = BinTestOperator(GTR)
)

func (o RedirOperator) String() string   { return Token(o).String() }
func (o BinCmdOperator) String() string  { return Token(o).String() }
func (o CaseOperator) String() string    { return Token(o).String() }
func (o ParExpOperator) String() string  { return Token(o).String() }
func (o GlobOperator) String() string    { return Token(o).String() }
func (o ProcOperator) String() string    { return Token(o).String() }
func (o UnTestOperator) String() string  { return Token(o).String() }
func (o BinTestOperator) String() string { return Token(o).String() }
