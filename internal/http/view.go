package http

import (
	"html/template"
	"strings"
	"time"

	"moim/internal/core"
)

// meetingCard is one entry of the home list.
type meetingCard struct {
	ID           string
	Title        string
	Date         string
	Location     string
	ThumbnailURL string
	Participants int
	Photos       int
	Comments     int
	Balance      int64
}

func newMeetingCard(m core.Meeting) meetingCard {
	card := meetingCard{
		ID:           m.ID,
		Title:        m.Title,
		Date:         m.Date.String(),
		Location:     m.Location,
		Participants: len(m.Participants),
		Photos:       len(m.Photos),
		Comments:     len(m.Comments),
		Balance:      core.Balance(m),
	}
	if p, ok := core.Thumbnail(m.Photos); ok {
		card.ThumbnailURL = p.URL
	}
	return card
}

type homeView struct {
	Banner   core.Banner
	Sort     core.SortOrder
	NextSort core.SortOrder
	Cards    []meetingCard
	Flash    *Notification
}

type commentsView struct {
	MeetingID string
	Comments  []core.Comment
	Author    string
}

// galleryView marks the photo the home card shows, which is the first
// flagged photo or else the first photo.
type galleryView struct {
	MeetingID   string
	Photos      []core.Photo
	ThumbnailID string
}

func newGalleryView(m core.Meeting) galleryView {
	g := galleryView{MeetingID: m.ID, Photos: m.Photos}
	if p, ok := core.Thumbnail(m.Photos); ok {
		g.ThumbnailID = p.ID
	}
	return g
}

type meetingView struct {
	Meeting  core.Meeting
	Summary  core.Summary
	Gallery  galleryView
	Comments commentsView
	Flash    *Notification
}

func newMeetingView(m core.Meeting, author string) meetingView {
	return meetingView{
		Meeting:  m,
		Summary:  core.Summarize(m),
		Gallery:  newGalleryView(m),
		Comments: commentsView{MeetingID: m.ID, Comments: m.Comments, Author: author},
	}
}

// editView renders the edit form or one of its fragments. OOB marks the
// summary fragment for an out-of-band swap.
type editView struct {
	SID     string
	IsNew   bool
	Draft   core.Meeting
	Summary core.Summary
	OOB     bool
	Flash   *Notification
}

var templateFuncs = template.FuncMap{
	"won": core.FormatWon,
	"commentDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006. 1. 2.")
	},
	"inc":        func(i int) int { return i + 1 },
	"safeImage":  safeImage,
	"isNegative": func(v int64) bool { return v < 0 },
}

// safeImage lets inline data:image URLs through html/template's URL filter,
// which would otherwise replace them. Other schemes are dropped.
func safeImage(u string) template.URL {
	switch {
	case strings.HasPrefix(u, "data:image/"),
		strings.HasPrefix(u, "https://"),
		strings.HasPrefix(u, "http://"),
		strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//"):
		return template.URL(u)
	default:
		return ""
	}
}
