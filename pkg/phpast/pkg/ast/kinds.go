package ast

// Kind is the stable tag identifying what a node represents. Tags are never
// reused across categories.
type Kind string

// Structural kinds.
const (
	KindFile    Kind = "File"
	KindUnknown Kind = "Unknown"
	KindComment Kind = "Comment"
)

// Declaration kinds.
const (
	KindNamespaceDecl  Kind = "NamespaceDecl"
	KindUseDecl        Kind = "UseDecl"
	KindClassDecl      Kind = "ClassDecl"
	KindInterfaceDecl  Kind = "InterfaceDecl"
	KindTraitDecl      Kind = "TraitDecl"
	KindTraitUse       Kind = "TraitUse"
	KindEnumDecl       Kind = "EnumDecl"
	KindEnumCase       Kind = "EnumCase"
	KindFunctionDecl   Kind = "FunctionDecl"
	KindMethodDecl     Kind = "MethodDecl"
	KindPropertyDecl   Kind = "PropertyDecl"
	KindConstDecl      Kind = "ConstDecl"
	KindClassConstDecl Kind = "ClassConstDecl"
	KindParam          Kind = "Param"
	KindAttribute      Kind = "Attribute"
)

// Statement kinds.
const (
	KindBlock      Kind = "Block"
	KindIf         Kind = "If"
	KindElse       Kind = "Else"
	KindWhile      Kind = "While"
	KindDoWhile    Kind = "DoWhile"
	KindFor        Kind = "For"
	KindForeach    Kind = "Foreach"
	KindSwitch     Kind = "Switch"
	KindCase       Kind = "Case"
	KindBreak      Kind = "Break"
	KindContinue   Kind = "Continue"
	KindReturn     Kind = "Return"
	KindEcho       Kind = "Echo"
	KindGlobal     Kind = "Global"
	KindStaticVar  Kind = "StaticVar"
	KindUnset      Kind = "Unset"
	KindTry        Kind = "Try"
	KindCatch      Kind = "Catch"
	KindFinally    Kind = "Finally"
	KindExprStmt   Kind = "ExprStmt"
	KindInlineHTML Kind = "InlineHTML"
)

// Expression kinds.
const (
	KindIntLit             Kind = "IntLit"
	KindFloatLit           Kind = "FloatLit"
	KindStringLit          Kind = "StringLit"
	KindInterpolatedString Kind = "InterpolatedString"
	KindBoolLit            Kind = "BoolLit"
	KindNullLit            Kind = "NullLit"
	KindArrayLit           Kind = "ArrayLit"
	KindKeyValue           Kind = "KeyValue"
	KindSpread             Kind = "Spread"
	KindVariable           Kind = "Variable"
	KindName               Kind = "Name"
	KindBinaryExpr         Kind = "BinaryExpr"
	KindUnaryExpr          Kind = "UnaryExpr"
	KindAssignExpr         Kind = "AssignExpr"
	KindAugAssignExpr      Kind = "AugAssignExpr"
	KindTernaryExpr        Kind = "TernaryExpr"
	KindMatchExpr          Kind = "MatchExpr"
	KindMatchArm           Kind = "MatchArm"
	KindCallExpr           Kind = "CallExpr"
	KindMemberCallExpr     Kind = "MemberCallExpr"
	KindStaticCallExpr     Kind = "StaticCallExpr"
	KindNewExpr            Kind = "NewExpr"
	KindCallableRefExpr    Kind = "CallableRefExpr"
	KindMemberAccessExpr   Kind = "MemberAccessExpr"
	KindStaticPropExpr     Kind = "StaticPropExpr"
	KindClassConstExpr     Kind = "ClassConstExpr"
	KindIndexExpr          Kind = "IndexExpr"
	KindCastExpr           Kind = "CastExpr"
	KindClosureExpr        Kind = "ClosureExpr"
	KindArrowFnExpr        Kind = "ArrowFnExpr"
	KindThrowExpr          Kind = "ThrowExpr"
	KindYieldExpr          Kind = "YieldExpr"
	KindArgument           Kind = "Argument"
)

// Type-annotation kinds.
const (
	KindTypeName         Kind = "TypeName"
	KindNullableType     Kind = "NullableType"
	KindUnionType        Kind = "UnionType"
	KindIntersectionType Kind = "IntersectionType"
)

// Category partitions kinds into the coarse node families of the model.
type Category int

// Categories, in the order they appear in the model.
const (
	CategoryOther Category = iota
	CategoryDeclaration
	CategoryStatement
	CategoryExpression
	CategoryType
)

func (c Category) String() string {
	switch c {
	case CategoryDeclaration:
		return "declaration"
	case CategoryStatement:
		return "statement"
	case CategoryExpression:
		return "expression"
	case CategoryType:
		return "type"
	default:
		return "other"
	}
}

var kindCategories = map[Kind]Category{
	KindFile:    CategoryOther,
	KindUnknown: CategoryOther,
	KindComment: CategoryOther,

	KindNamespaceDecl:  CategoryDeclaration,
	KindUseDecl:        CategoryDeclaration,
	KindClassDecl:      CategoryDeclaration,
	KindInterfaceDecl:  CategoryDeclaration,
	KindTraitDecl:      CategoryDeclaration,
	KindTraitUse:       CategoryDeclaration,
	KindEnumDecl:       CategoryDeclaration,
	KindEnumCase:       CategoryDeclaration,
	KindFunctionDecl:   CategoryDeclaration,
	KindMethodDecl:     CategoryDeclaration,
	KindPropertyDecl:   CategoryDeclaration,
	KindConstDecl:      CategoryDeclaration,
	KindClassConstDecl: CategoryDeclaration,
	KindParam:          CategoryDeclaration,
	KindAttribute:      CategoryDeclaration,

	KindBlock:      CategoryStatement,
	KindIf:         CategoryStatement,
	KindElse:       CategoryStatement,
	KindWhile:      CategoryStatement,
	KindDoWhile:    CategoryStatement,
	KindFor:        CategoryStatement,
	KindForeach:    CategoryStatement,
	KindSwitch:     CategoryStatement,
	KindCase:       CategoryStatement,
	KindBreak:      CategoryStatement,
	KindContinue:   CategoryStatement,
	KindReturn:     CategoryStatement,
	KindEcho:       CategoryStatement,
	KindGlobal:     CategoryStatement,
	KindStaticVar:  CategoryStatement,
	KindUnset:      CategoryStatement,
	KindTry:        CategoryStatement,
	KindCatch:      CategoryStatement,
	KindFinally:    CategoryStatement,
	KindExprStmt:   CategoryStatement,
	KindInlineHTML: CategoryStatement,

	KindIntLit:             CategoryExpression,
	KindFloatLit:           CategoryExpression,
	KindStringLit:          CategoryExpression,
	KindInterpolatedString: CategoryExpression,
	KindBoolLit:            CategoryExpression,
	KindNullLit:            CategoryExpression,
	KindArrayLit:           CategoryExpression,
	KindKeyValue:           CategoryExpression,
	KindSpread:             CategoryExpression,
	KindVariable:           CategoryExpression,
	KindName:               CategoryExpression,
	KindBinaryExpr:         CategoryExpression,
	KindUnaryExpr:          CategoryExpression,
	KindAssignExpr:         CategoryExpression,
	KindAugAssignExpr:      CategoryExpression,
	KindTernaryExpr:        CategoryExpression,
	KindMatchExpr:          CategoryExpression,
	KindMatchArm:           CategoryExpression,
	KindCallExpr:           CategoryExpression,
	KindMemberCallExpr:     CategoryExpression,
	KindStaticCallExpr:     CategoryExpression,
	KindNewExpr:            CategoryExpression,
	KindCallableRefExpr:    CategoryExpression,
	KindMemberAccessExpr:   CategoryExpression,
	KindStaticPropExpr:     CategoryExpression,
	KindClassConstExpr:     CategoryExpression,
	KindIndexExpr:          CategoryExpression,
	KindCastExpr:           CategoryExpression,
	KindClosureExpr:        CategoryExpression,
	KindArrowFnExpr:        CategoryExpression,
	KindThrowExpr:          CategoryExpression,
	KindYieldExpr:          CategoryExpression,
	KindArgument:           CategoryExpression,

	KindTypeName:         CategoryType,
	KindNullableType:     CategoryType,
	KindUnionType:        CategoryType,
	KindIntersectionType: CategoryType,
}

// CategoryOf returns the category a kind belongs to. Unregistered kinds
// report CategoryOther, matching the Unknown placeholder policy.
func CategoryOf(k Kind) Category {
	if c, ok := kindCategories[k]; ok {
		return c
	}

	return CategoryOther
}
