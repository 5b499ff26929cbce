package library

import (
	"fmt"
	"time"
)

// Seed is the data a fresh install starts from.
type Seed struct {
	Books         []Book
	Users         []User
	Notifications []Notification
	TopPick       TopPick
}

const (
	defaultAvatar     = "https://placehold.co/150x150?text=User"
	defaultBio        = "Dedicated reader."
	defaultWeeklyGoal = 5
)

// DefaultSeed returns the catalog, admin account, welcome notification
// and banner shipped with the application.
func DefaultSeed(now time.Time) Seed {
	korraPages := make([]string, 72)
	for i := range korraPages {
		korraPages[i] = fmt.Sprintf("/img/GuerrasTerritoriais/1/gt (%d).jpg", i)
	}

	return Seed{
		Books: []Book{
			{
				ID:     1,
				Title:  "Chronicles of Aether",
				Author: "J. Skies",
				Genres: []string{"Fantasy", "Adventure"},
				Rating: 4.8,
				Cover:  "https://placehold.co/200x300/1e3a8a/FFF?text=Aether",
				Desc:   "In a world where islands float in the sky...",
				Pages:  320,
			},
			{
				ID:     2,
				Title:  "Neon Rain",
				Author: "Cyber Dreams",
				Genres: []string{"Sci-Fi", "Noir"},
				Rating: 4.5,
				Cover:  "https://placehold.co/200x300/0f172a/FFF?text=Neon",
				Desc:   "A detective story in a city that never sleeps...",
				Pages:  210,
			},
			{
				ID:     3,
				Title:  "Silent Cosmos",
				Author: "Star Walker",
				Genres: []string{"Sci-Fi"},
				Rating: 5.0,
				Cover:  "https://placehold.co/200x300/000000/FFF?text=Cosmos",
				Desc:   "Silence is the loudest sound...",
				Pages:  180,
			},
			{
				ID:         4,
				Title:      "Legend of Korra: Turf Wars Vol. 1",
				Author:     "Michael Dante DiMartino & Bryan Konietzko",
				Collection: "Legend of Korra",
				Genres:     []string{"Comics", "Legend of Korra"},
				Cover:      "/covers/guerras territoriais.jpg",
				Desc:       "First volume of Turf Wars, following Korra and Asami after the end of the series.",
				Pages:      72,
				Content:    ImagePagesContent(korraPages),
			},
			{
				ID:         5,
				Title:      "X-Men: House of X Vol. 1",
				Author:     "Jonathan Hickman",
				Collection: "X-Men",
				Genres:     []string{"X-Men", "Marvel", "Comics"},
				Cover:      "/covers/dinastiaX1.jpg",
				Desc:       "The mutant revolution on Krakoa begins.",
				Pages:      58,
				Content:    PDFContent("/pdf/DinastiaX/DinastiaX1.pdf"),
			},
		},
		Users: []User{
			{
				ID:         "admin",
				Username:   "admingab",
				Password:   "12345admin",
				Name:       "Gabrdsp Admin",
				Role:       RoleAdmin,
				Avatar:     "https://placehold.co/150x150/1e3a8a/FFF?text=Admin",
				Bio:        "System Administrator",
				WeeklyGoal: WeeklyGoal{Target: defaultWeeklyGoal},
				History:    []int64{},
				Favorites:  []int64{},
			},
		},
		Notifications: []Notification{
			{ID: 1, Text: "Welcome to Air!", Date: now.Format(NotificationDateLayout)},
		},
		TopPick: TopPick{
			ID:          1,
			BannerTitle: "Chronicles of Aether",
			BannerDesc:  "In a world where islands float in the sky, one pilot seeks the ground.",
			BannerCover: "https://placehold.co/800x400/1e3a8a/FFF?text=Banner",
		},
	}
}
