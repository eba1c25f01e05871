// Package ir provides the shared intermediate representation for verbcheck.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. It holds three families of types:
//   - the verb schema model (Type, VerbDefinition, ArgumentSpec and rules)
//   - the untyped program tree handed over by the external parser
//   - the typed program tree produced by a successful validation
//
// Key design constraints:
//   - Spans are copied unchanged from untyped values to typed values
//   - No binary floats: decimal values use apd.Decimal
//   - All JSON tags use snake_case
package ir
