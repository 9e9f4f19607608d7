package dotnet

// Exported aliases for testing internal functions from the
// dotnet_test package.

// ParseSearchForTest exposes parseSearch.
var ParseSearchForTest = parseSearch

// CompareForTest exposes compare.
var CompareForTest = compare

// SortNewestFirstForTest exposes sortNewestFirst.
var SortNewestFirstForTest = sortNewestFirst
