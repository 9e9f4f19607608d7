package promote

// Exported aliases for testing internal functions from the
// promote_test package.

// RenderTitleForTest exposes renderTitle.
var RenderTitleForTest = renderTitle
