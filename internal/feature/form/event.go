package form

import (
	"strings"
	"time"

	"church-manager/internal/domain"
)

type SetlistRecord struct {
	SongID *string `json:"songId"`
	Key    *string `json:"key"`
	Title  *string `json:"title"`
}

type EventRecord struct {
	ID          *string         `json:"id"`
	Title       *string         `json:"title"`
	Type        *string         `json:"type"`
	Date        *time.Time      `json:"date"`
	Location    *string         `json:"location"`
	Description *string         `json:"description"`
	Songs       []SetlistRecord `json:"songs"`
}

type SetlistEntry struct {
	SongID string `json:"songId"`
	Key    string `json:"key,omitempty"`
}

type EventForm struct {
	ID          string           `json:"id,omitempty"`
	Title       string           `json:"title"`
	Type        domain.EventType `json:"type"`
	Date        *time.Time       `json:"date,omitempty"`
	Location    string           `json:"location,omitempty"`
	Description string           `json:"description,omitempty"`
	Songs       []SetlistEntry   `json:"songs"`
}

func Event(rec EventRecord) EventForm {
	f := EventForm{
		ID:          str(rec.ID),
		Title:       str(rec.Title),
		Type:        domain.EventType(str(rec.Type)),
		Date:        rec.Date,
		Location:    str(rec.Location),
		Description: str(rec.Description),
	}
	for _, s := range rec.Songs {
		f.Songs = append(f.Songs, SetlistEntry{SongID: str(s.SongID), Key: str(s.Key)})
	}
	return f.Normalize()
}

func (f EventForm) Normalize() EventForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	f.Type = domain.EventTypeOr(string(f.Type), domain.EventService)
	songs := make([]SetlistEntry, 0, len(f.Songs))
	for _, s := range f.Songs {
		s.SongID, s.Key = strings.TrimSpace(s.SongID), strings.TrimSpace(s.Key)
		if s.SongID == "" {
			continue
		}
		songs = append(songs, s)
	}
	f.Songs = songs
	return f
}

type SongRecord struct {
	ID         *string `json:"id"`
	Title      *string `json:"title"`
	Artist     *string `json:"artist"`
	Category   *string `json:"category"`
	Key        *string `json:"key"`
	BPM        *int    `json:"bpm"`
	Lyrics     *string `json:"lyrics"`
	Chords     *string `json:"chords"`
	YoutubeURL *string `json:"youtubeUrl"`
	AudioURL   *string `json:"audioUrl"`
}

type SongForm struct {
	ID         string              `json:"id,omitempty"`
	Title      string              `json:"title"`
	Artist     string              `json:"artist,omitempty"`
	Category   domain.SongCategory `json:"category"`
	Key        string              `json:"key,omitempty"`
	BPM        int                 `json:"bpm,omitempty"`
	Lyrics     string              `json:"lyrics,omitempty"`
	Chords     string              `json:"chords,omitempty"`
	YoutubeURL string              `json:"youtubeUrl,omitempty"`
	AudioURL   string              `json:"audioUrl,omitempty"`
}

func Song(rec SongRecord) SongForm {
	f := SongForm{
		ID:         str(rec.ID),
		Title:      str(rec.Title),
		Artist:     str(rec.Artist),
		Category:   domain.SongCategory(str(rec.Category)),
		Key:        str(rec.Key),
		Lyrics:     str(rec.Lyrics),
		Chords:     str(rec.Chords),
		YoutubeURL: str(rec.YoutubeURL),
		AudioURL:   str(rec.AudioURL),
	}
	if rec.BPM != nil {
		f.BPM = *rec.BPM
	}
	return f.Normalize()
}

func (f SongForm) Normalize() SongForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Title = strings.TrimSpace(f.Title)
	f.Artist = strings.TrimSpace(f.Artist)
	f.Key = strings.TrimSpace(f.Key)
	f.YoutubeURL = strings.TrimSpace(f.YoutubeURL)
	f.AudioURL = strings.TrimSpace(f.AudioURL)
	f.Category = domain.SongCategoryOr(string(f.Category), domain.SongOther)
	if f.BPM < 0 {
		f.BPM = 0
	}
	return f
}

type TransactionRecord struct {
	ID          *string    `json:"id"`
	Description *string    `json:"description"`
	Amount      *string    `json:"amount"`
	Type        *string    `json:"type"`
	CategoryID  *string    `json:"categoryId"`
	MemberID    *string    `json:"memberId"`
	Date        *time.Time `json:"date"`
	Recurrence  *string    `json:"recurrence"`
}

type TransactionForm struct {
	ID          string                 `json:"id,omitempty"`
	Description string                 `json:"description"`
	Amount      string                 `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	CategoryID  string                 `json:"categoryId,omitempty"`
	MemberID    string                 `json:"memberId,omitempty"`
	Date        *time.Time             `json:"date,omitempty"`
	Recurrence  domain.Recurrence      `json:"recurrence"`
}

func Transaction(rec TransactionRecord) TransactionForm {
	return TransactionForm{
		ID:          str(rec.ID),
		Description: str(rec.Description),
		Amount:      str(rec.Amount),
		Type:        domain.TransactionType(str(rec.Type)),
		CategoryID:  str(rec.CategoryID),
		MemberID:    str(rec.MemberID),
		Date:        rec.Date,
		Recurrence:  domain.Recurrence(str(rec.Recurrence)),
	}.Normalize()
}

func (f TransactionForm) Normalize() TransactionForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Description = strings.TrimSpace(f.Description)
	f.Amount = strings.TrimSpace(f.Amount)
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	f.MemberID = strings.TrimSpace(f.MemberID)
	f.Type = domain.TransactionTypeOr(string(f.Type), domain.TxIncome)
	f.Recurrence = domain.RecurrenceOr(string(f.Recurrence), domain.RecurNone)
	return f
}
