// AngelaMos | 2026
// dto.go

package user

import (
	"io"
	"time"
)

// UpdateProfileRequest carries optional profile fields; nil means unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Nickname *string `json:"nickName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type AvatarUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Extension   string
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickName"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	AvatarURL string    `json:"avatarUrl"`
	Followers []string  `json:"followers"`
	CreatedAt time.Time `json:"createdAt"`
}

type PublicProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickName"`
	Avatar    string    `json:"avatar"`
	AvatarURL string    `json:"avatarUrl"`
	Followers []string  `json:"followers"`
	CreatedAt time.Time `json:"createdAt"`
}

type DeleteAccountResponse struct {
	Message          string `json:"message"`
	ReassignedAssets int64  `json:"reassignedAssets"`
}

func ToUserResponse(u *User, avatarURL string) UserResponse {
	followers := u.Followers
	if followers == nil {
		followers = []string{}
	}

	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Avatar:    u.Avatar,
		AvatarURL: avatarURL,
		Followers: followers,
		CreatedAt: u.CreatedAt,
	}
}

func ToPublicProfileResponse(u *User, avatarURL string) PublicProfileResponse {
	full := ToUserResponse(u, avatarURL)
	return PublicProfileResponse{
		ID:        full.ID,
		Name:      full.Name,
		Nickname:  full.Nickname,
		Avatar:    full.Avatar,
		AvatarURL: full.AvatarURL,
		Followers: full.Followers,
		CreatedAt: full.CreatedAt,
	}
}
