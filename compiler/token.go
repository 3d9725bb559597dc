package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Razen lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenComment

	// Literals
	TokenIdentifier // foo, bar_baz
	TokenNumber     // 42, 3.14
	TokenString     // "hello"

	// Operators
	TokenAssign        // =
	TokenPlus          // +
	TokenMinus         // -
	TokenStar          // *
	TokenSlash         // /
	TokenPercent       // %
	TokenPower         // **
	TokenFloorDiv      // //
	TokenBang          // !
	TokenEq            // ==
	TokenNotEq         // !=
	TokenLT            // <
	TokenGT            // >
	TokenLTE           // <=
	TokenGTE           // >=
	TokenAnd           // &&
	TokenOr            // ||
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenColonColon    // ::
	TokenDot           // .

	// Delimiters
	TokenComma     // ,
	TokenSemicolon // ;
	TokenColon     // :
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]

	// Declarations
	TokenNum
	TokenStr
	TokenBool
	TokenVar
	TokenConst
	TokenEnum
	TokenClass
	TokenFun

	// Control flow
	TokenIf
	TokenElse
	TokenElif
	TokenWhile
	TokenFor
	TokenIn
	TokenIs
	TokenNot
	TokenBreak
	TokenContinue
	TokenReturn

	// I/O
	TokenShow
	TokenRead
	TokenExit

	// Exceptions
	TokenTry
	TokenCatch
	TokenFinally
	TokenThrow

	// Literal keywords
	TokenTrue
	TokenFalse
	TokenNull

	// Modules
	TokenUse
	TokenImport
	TokenExport
	TokenAs
	TokenFrom
	TokenLib

	// Document type (type script;)
	TokenDocType

	// Debugging
	TokenDebug
	TokenAssert
	TokenTrace

	// Compiler-construction DSL
	TokenGrammar
	TokenTokenDecl
	TokenLexerDecl
	TokenParserDecl
	TokenNode
	TokenRule
	TokenVisitor
	TokenSymbol
	TokenScope
	TokenTypeSystem
	TokenIR
	TokenCodeGen
	TokenOptimize
	TokenTarget
	TokenAttribute

	// Standard library keywords
	TokenArrayLib
	TokenStringLib
	TokenMathLib
	TokenRandomLib
	TokenFileLib
	TokenJSONLib
	TokenNetLib
	TokenTimeLib
	TokenDateLib
	TokenOSLib
	TokenSystemLib
	TokenLogLib
	TokenCryptoLib
	TokenRegexLib
	TokenUUIDLib
	TokenColorLib
	TokenValidationLib
	TokenBoltLib
	TokenSeedLib
	TokenBoxLib
	TokenHtLib
	TokenAudioLib
	TokenImageLib
	TokenMemoryLib
	TokenBinaryLib
	TokenBitwiseLib
	TokenSyscallLib
	TokenProcessLib
	TokenThreadLib
	TokenCompilerLib
	TokenLexLib
	TokenParseLib
	TokenASTLib
	TokenSymbolLib
	TokenTypeLib
	TokenIRLib
	TokenCodeGenLib
	TokenOptimizeLib
	TokenAPILib
	TokenFilesystemLib
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIllegal:    "ILLEGAL",
	TokenComment:    "COMMENT",
	TokenIdentifier: "IDENTIFIER",
	TokenNumber:     "NUMBER",
	TokenString:     "STRING",

	TokenAssign:        "=",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenPercent:       "%",
	TokenPower:         "**",
	TokenFloorDiv:      "//",
	TokenBang:          "!",
	TokenEq:            "==",
	TokenNotEq:         "!=",
	TokenLT:            "<",
	TokenGT:            ">",
	TokenLTE:           "<=",
	TokenGTE:           ">=",
	TokenAnd:           "&&",
	TokenOr:            "||",
	TokenPlusAssign:    "+=",
	TokenMinusAssign:   "-=",
	TokenStarAssign:    "*=",
	TokenSlashAssign:   "/=",
	TokenPercentAssign: "%=",
	TokenColonColon:    "::",
	TokenDot:           ".",

	TokenComma:     ",",
	TokenSemicolon: ";",
	TokenColon:     ":",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenLBracket:  "[",
	TokenRBracket:  "]",

	TokenNum:   "num",
	TokenStr:   "str",
	TokenBool:  "bool",
	TokenVar:   "var",
	TokenConst: "const",
	TokenEnum:  "enum",
	TokenClass: "class",
	TokenFun:   "fun",

	TokenIf:       "if",
	TokenElse:     "else",
	TokenElif:     "elif",
	TokenWhile:    "while",
	TokenFor:      "for",
	TokenIn:       "in",
	TokenIs:       "is",
	TokenNot:      "not",
	TokenBreak:    "break",
	TokenContinue: "continue",
	TokenReturn:   "return",

	TokenShow: "show",
	TokenRead: "read",
	TokenExit: "exit",

	TokenTry:     "try",
	TokenCatch:   "catch",
	TokenFinally: "finally",
	TokenThrow:   "throw",

	TokenTrue:  "true",
	TokenFalse: "false",
	TokenNull:  "null",

	TokenUse:     "use",
	TokenImport:  "import",
	TokenExport:  "export",
	TokenAs:      "as",
	TokenFrom:    "from",
	TokenLib:     "lib",
	TokenDocType: "type",

	TokenDebug:  "debug",
	TokenAssert: "assert",
	TokenTrace:  "trace",

	TokenGrammar:    "grammar",
	TokenTokenDecl:  "token",
	TokenLexerDecl:  "lexer",
	TokenParserDecl: "parser",
	TokenNode:       "node",
	TokenRule:       "rule",
	TokenVisitor:    "visitor",
	TokenSymbol:     "symbol",
	TokenScope:      "scope",
	TokenTypeSystem: "typesystem",
	TokenIR:         "ir",
	TokenCodeGen:    "codegen",
	TokenOptimize:   "optimize",
	TokenTarget:     "target",
	TokenAttribute:  "attribute",
}

// String returns the token type name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	if name, ok := libraryNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsLibrary reports whether t is a standard library keyword.
func (t TokenType) IsLibrary() bool {
	return t >= TokenArrayLib && t <= TokenFilesystemLib
}

// IsConstruct reports whether t introduces a compiler-construction statement.
func (t TokenType) IsConstruct() bool {
	return t >= TokenGrammar && t <= TokenAttribute
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return fmt.Sprintf("ILLEGAL(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// ---------------------------------------------------------------------------
// Reserved words
// ---------------------------------------------------------------------------

var keywords = map[string]TokenType{
	"num":   TokenNum,
	"str":   TokenStr,
	"bool":  TokenBool,
	"var":   TokenVar,
	"const": TokenConst,
	"enum":  TokenEnum,
	"class": TokenClass,
	"fun":   TokenFun,

	// Older declaration keywords
	"let":  TokenNum,
	"take": TokenStr,
	"hold": TokenBool,
	"put":  TokenVar,

	"if":       TokenIf,
	"else":     TokenElse,
	"elif":     TokenElif,
	"while":    TokenWhile,
	"for":      TokenFor,
	"in":       TokenIn,
	"is":       TokenIs,
	"not":      TokenNot,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"return":   TokenReturn,

	"show": TokenShow,
	"read": TokenRead,
	"exit": TokenExit,

	"try":     TokenTry,
	"catch":   TokenCatch,
	"finally": TokenFinally,
	"throw":   TokenThrow,

	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,

	"use":    TokenUse,
	"import": TokenImport,
	"export": TokenExport,
	"as":     TokenAs,
	"from":   TokenFrom,
	"lib":    TokenLib,
	"type":   TokenDocType,

	"debug":  TokenDebug,
	"assert": TokenAssert,
	"trace":  TokenTrace,

	"grammar":    TokenGrammar,
	"token":      TokenTokenDecl,
	"lexer":      TokenLexerDecl,
	"parser":     TokenParserDecl,
	"node":       TokenNode,
	"rule":       TokenRule,
	"visitor":    TokenVisitor,
	"symbol":     TokenSymbol,
	"scope":      TokenScope,
	"typesystem": TokenTypeSystem,
	"ir":         TokenIR,
	"codegen":    TokenCodeGen,
	"optimize":   TokenOptimize,
	"target":     TokenTarget,
	"attribute":  TokenAttribute,
}

// libraryKeywords lists the standard library keywords. The first spelling is
// the canonical library name used for registry lookups.
var libraryKeywords = []struct {
	Type      TokenType
	Spellings []string
}{
	{TokenArrayLib, []string{"Array", "arrlib", "ArrayLib"}},
	{TokenStringLib, []string{"String", "strlib", "StringLib"}},
	{TokenMathLib, []string{"Math", "mathlib", "MathLib"}},
	{TokenRandomLib, []string{"Random", "randomlib", "RandomLib"}},
	{TokenFileLib, []string{"File", "filelib", "FileLib"}},
	{TokenJSONLib, []string{"JSON", "jsonlib", "JSONLib"}},
	{TokenNetLib, []string{"Net", "netlib", "NetLib"}},
	{TokenTimeLib, []string{"Time", "timelib", "TimeLib"}},
	{TokenDateLib, []string{"Date", "datelib", "DateLib"}},
	{TokenOSLib, []string{"OS", "oslib", "OSLib"}},
	{TokenSystemLib, []string{"System", "systemlib", "SystemLib"}},
	{TokenLogLib, []string{"Log", "loglib", "LogLib"}},
	{TokenCryptoLib, []string{"Crypto", "cryptolib", "CryptoLib"}},
	{TokenRegexLib, []string{"Regex", "regexlib", "RegexLib"}},
	{TokenUUIDLib, []string{"UUID", "uuidlib", "UUIDLib"}},
	{TokenColorLib, []string{"Color", "colorlib", "ColorLib"}},
	{TokenValidationLib, []string{"Validation", "validationlib", "ValidationLib"}},
	{TokenBoltLib, []string{"Bolt", "boltlib", "BoltLib"}},
	{TokenSeedLib, []string{"Seed", "seedlib", "SeedLib"}},
	{TokenBoxLib, []string{"Box", "boxlib", "BoxLib"}},
	{TokenHtLib, []string{"Ht", "htlib", "HtLib"}},
	{TokenAudioLib, []string{"Audio", "audiolib", "AudioLib"}},
	{TokenImageLib, []string{"Image", "imagelib", "ImageLib"}},
	{TokenMemoryLib, []string{"Memory", "memorylib", "MemoryLib"}},
	{TokenBinaryLib, []string{"Binary", "binarylib", "BinaryLib"}},
	{TokenBitwiseLib, []string{"Bitwise", "bitwiselib", "BitwiseLib"}},
	{TokenSyscallLib, []string{"Syscall", "syscalllib", "SyscallLib"}},
	{TokenProcessLib, []string{"Process", "processlib", "ProcessLib"}},
	{TokenThreadLib, []string{"Thread", "threadlib", "ThreadLib"}},
	{TokenCompilerLib, []string{"Compiler", "compilerlib", "CompilerLib"}},
	{TokenLexLib, []string{"Lexer", "lexlib", "LexerLib"}},
	{TokenParseLib, []string{"Parser", "parselib", "ParserLib"}},
	{TokenASTLib, []string{"AST", "astlib", "ASTLib"}},
	{TokenSymbolLib, []string{"Symbol", "symlib", "SymbolLib"}},
	{TokenTypeLib, []string{"Type", "typelib", "TypeLib"}},
	{TokenIRLib, []string{"IR", "irlib", "IRLib"}},
	{TokenCodeGenLib, []string{"CodeGen", "codegenlib", "CodeGenLib"}},
	{TokenOptimizeLib, []string{"Optimize", "optimizelib", "OptimizeLib"}},
	{TokenAPILib, []string{"API", "apilib", "APILib"}},
	{TokenFilesystemLib, []string{"Filesystem", "fslib", "FilesystemLib"}},
}

// libraryNames maps a library keyword to its canonical library name.
var libraryNames = map[TokenType]string{}

func init() {
	for _, lk := range libraryKeywords {
		libraryNames[lk.Type] = lk.Spellings[0]
		for _, s := range lk.Spellings {
			keywords[s] = lk.Type
		}
	}
}

// LookupIdent returns the keyword token type for ident, or TokenIdentifier.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return TokenIdentifier
}

// LibraryName returns the canonical library name for a library keyword.
func LibraryName(t TokenType) (string, bool) {
	name, ok := libraryNames[t]
	return name, ok
}

// KeywordCount returns the number of reserved words.
func KeywordCount() int {
	return len(keywords)
}
