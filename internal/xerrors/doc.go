// Package xerrors provides structured, actionable error messages for modkit.
//
// Each error carries a stable code (e.g., "M001"), a category, an optional
// source file and byte offset, and a hint on how to fix the problem. Codes
// map to registered templates so the same failure always produces the same
// message and documentation link.
//
// Usage:
//
//	err := xerrors.New("M001").
//	    WithFile("src/app.js").
//	    WithOffset(152)
//
//	fmt.Println(err.Format())
package xerrors
