package pawn

// ValuesFromContext exposes valuesFromContext to the external pawn_test package.
var ValuesFromContext = valuesFromContext
