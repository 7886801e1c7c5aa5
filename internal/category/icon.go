package category

// Icon is the closed set of icons a category can be rendered with.
type Icon int

const (
	IconGeneric Icon = iota
	IconDocument
	IconImage
	IconAudio
	IconVideo
	IconArchive
)

var iconNames = [...]string{"generic", "document", "image", "audio", "video", "archive"}

func (i Icon) String() string {
	if i < 0 || int(i) >= len(iconNames) {
		return iconNames[IconGeneric]
	}
	return iconNames[i]
}

// iconTags covers the tags offered by the category dialog as well as the
// enumeration names themselves.
var iconTags = map[string]Icon{
	"file":      IconGeneric,
	"generic":   IconGeneric,
	"file-text": IconDocument,
	"document":  IconDocument,
	"image":     IconImage,
	"music":     IconAudio,
	"audio":     IconAudio,
	"film":      IconVideo,
	"video":     IconVideo,
	"archive":   IconArchive,
}

// ParseIcon maps a stored tag to an Icon. Unknown tags, including tags
// written by newer versions, resolve to IconGeneric.
func ParseIcon(tag string) Icon {
	if icon, ok := iconTags[tag]; ok {
		return icon
	}
	return IconGeneric
}

// DefaultIconTag is used when a category is created without an icon.
const DefaultIconTag = "file"
