package constant

// Export file format markers. Version and source are pinned for
// compatibility with files exported by the original frontend.
const (
	ExportFormatVersion = "2.0"
	ExportSource        = "firebase"
	ImportSource        = "import"
)
