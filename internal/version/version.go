package version

// Version is the loadster release this binary was built from.
const Version = "1.0.0"

// UserAgent returns the identifying User-Agent value sent with every
// generated request.
func UserAgent() string {
	return "loadster/" + Version
}
