package indexing

const (
	// TitleSeparator joins ancestor titles into a path-qualified title
	TitleSeparator = " > "

	// fallbackSlug stands in for names that contain no letters or digits
	fallbackSlug = "untitled"
)
