package interaction

// Command is a typed message from the interaction controller to the
// component that owns the matching overlay or editor. The fixed
// vocabulary below replaces an untyped event bus so payload shapes are
// checked at compile time.
type Command interface {
	isCommand()
}

// PlayYouTubeCommand asks the overlay owner to open a YouTube player
// for the given object.
type PlayYouTubeCommand struct {
	ObjectID int64
	URL      string
}

// PlayVideoCommand asks the overlay owner to open an embedded video
// player for the given object.
type PlayVideoCommand struct {
	ObjectID int64
	URL      string
}

// TextChangedCommand reports that the text editor committed new content
// for the given object.
type TextChangedCommand struct {
	ObjectID int64
	Text     string
}

func (PlayYouTubeCommand) isCommand() {}
func (PlayVideoCommand) isCommand()   {}
func (TextChangedCommand) isCommand() {}
