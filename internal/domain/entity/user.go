package entity

type User struct {
	ID        string `json:"id" firestore:"id"`
	Email     string `json:"email" firestore:"email"`
	Username  string `json:"username" firestore:"username"`
	FullName  string `json:"full_name,omitempty" firestore:"fullName,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	Role      string `json:"role" firestore:"role"`
}

// Profile builds the chat snapshot for the user, preferring the username
// and the uploaded avatar.
func (u *User) Profile() ParticipantProfile {
	name := u.Username
	if name == "" {
		name = u.FullName
	}
	avatar := u.AvatarURL
	if avatar == "" {
		avatar = u.PhotoURL
	}
	return ParticipantProfile{ID: u.ID, Name: name, ProfileURL: avatar}
}
