package upload

import (
	"errors"
	"fmt"

	"google.golang.org/api/youtube/v3"
)

const (
	PrivacyPublic   = "public"
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
)

// PeopleAndBlogs is the category the dummy upload has always used.
const PeopleAndBlogs = "22"

// Metadata is the snippet and status sent with an insert request.
type Metadata struct {
	Title       string
	Description string
	// Category is a numeric category id or its English name.
	Category string
	Privacy  string
	Tags     []string
}

func (m Metadata) Validate() error {
	if m.Title == "" {
		return errors.New("title cannot be empty")
	}
	if !ValidPrivacy(m.Privacy) {
		return fmt.Errorf("invalid privacy status: %s", m.Privacy)
	}
	if CategoryID(m.Category) == "" {
		return fmt.Errorf("invalid category ID or name: %s", m.Category)
	}
	return nil
}

// Video builds the request body for videos.insert. Call Validate first.
func (m Metadata) Video() *youtube.Video {
	v := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       m.Title,
			Description: m.Description,
			CategoryId:  CategoryID(m.Category),
		},
		Status: &youtube.VideoStatus{PrivacyStatus: m.Privacy},
	}
	// The API answers 400 to an empty tags string.
	if len(m.Tags) > 0 {
		v.Snippet.Tags = m.Tags
	}
	return v
}

func ValidPrivacy(privacy string) bool {
	switch privacy {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return true
	}
	return false
}

var categories = map[string]string{
	"1":  "Film & Animation",
	"2":  "Autos & Vehicles",
	"10": "Music",
	"15": "Pets & Animals",
	"17": "Sports",
	"18": "Short Movies",
	"19": "Travel & Events",
	"20": "Gaming",
	"21": "Videoblogging",
	"22": "People & Blogs",
	"23": "Comedy",
	"24": "Entertainment",
	"25": "News & Politics",
	"26": "Howto & Style",
	"27": "Education",
	"28": "Science & Technology",
	"29": "Nonprofits & Activism",
	"30": "Movies",
	"31": "Anime/Animation",
	"32": "Action/Adventure",
	"33": "Classics",
	"35": "Documentary",
	"36": "Drama",
	"37": "Family",
	"38": "Foreign",
	"39": "Horror",
	"40": "Sci-Fi/Fantasy",
	"41": "Thriller",
	"42": "Shorts",
	"43": "Shows",
	"44": "Trailers",
}

// CategoryID resolves a category id or name to its id, or "" when unknown.
func CategoryID(cat string) string {
	if _, ok := categories[cat]; ok {
		return cat
	}
	for id, name := range categories {
		if name == cat {
			return id
		}
	}
	return ""
}

// Categories returns the known category ids and names.
func Categories() map[string]string {
	out := make(map[string]string, len(categories))
	for id, name := range categories {
		out[id] = name
	}
	return out
}
