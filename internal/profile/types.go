package profile

// Profile is the signed-in viewer as shown in the page header, about and
// skills sections. It is owned by the session, not by the page.
type Profile struct {
	Name         string   `json:"name"`
	Headline     string   `json:"headline"`
	Email        string   `json:"email"`
	Organization string   `json:"organization,omitempty"` // optional; hidden when empty
	Skills       []string `json:"skills"`
	About        string   `json:"about"`
	Picture      string   `json:"pic"`
}

// Field keys as stored in the user_profile table.
const (
	KeyName         = "name"
	KeyHeadline     = "headline"
	KeyEmail        = "email"
	KeyOrganization = "organization"
	KeySkills       = "skills" // JSON array
	KeyAbout        = "about"
	KeyPicture      = "pic"
)

// Keys lists every settable profile field.
var Keys = []string{KeyName, KeyHeadline, KeyEmail, KeyOrganization, KeySkills, KeyAbout, KeyPicture}

// IsKey reports whether key names a profile field.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
