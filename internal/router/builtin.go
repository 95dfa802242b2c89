package router

// builtinRoutes is the extension table consulted when the configured table
// has no entry. Kept deliberately conservative: only unambiguous extensions.
var builtinRoutes = buildBuiltinRoutes(map[string][]string{
	"Documents": {
		"pdf", "doc", "docx", "odt", "rtf", "txt", "md",
		"xls", "xlsx", "ods", "csv",
		"ppt", "pptx", "odp",
		"epub", "mobi",
	},
	"Images": {
		"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp",
		"heic", "tif", "tiff", "ico", "raw",
	},
	"Videos": {
		"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm",
		"m4v", "mpg", "mpeg", "ts",
	},
	"Music": {
		"mp3", "wav", "flac", "aac", "ogg", "m4a", "wma", "opus",
	},
	"Archives": {
		"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "zst", "iso",
	},
	"Programs": {
		"exe", "msi", "dmg", "pkg", "deb", "rpm", "appimage", "apk", "jar",
	},
	"Code": {
		"py", "js", "go", "java", "c", "cpp", "h", "rs", "rb",
		"sh", "html", "css", "json", "xml", "yaml", "yml", "sql", "toml",
	},
	"Fonts": {
		"ttf", "otf", "woff", "woff2",
	},
})

func buildBuiltinRoutes(table map[string][]string) map[string]string {
	byExtension := make(map[string]string)
	for category, extensions := range table {
		for _, ext := range extensions {
			byExtension[ext] = category
		}
	}
	return byExtension
}
