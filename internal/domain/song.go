package domain

import "strings"

type SongCategory string

const (
	SongWorship   SongCategory = "worship"
	SongPraise    SongCategory = "praise"
	SongHymn      SongCategory = "hymn"
	SongOffering  SongCategory = "offering"
	SongCommunion SongCategory = "communion"
	SongOther     SongCategory = "other"
)

var SongCategories = []SongCategory{SongWorship, SongPraise, SongHymn, SongOffering, SongCommunion, SongOther}

func ParseSongCategory(s string) (SongCategory, bool)        { return parseEnum(s, SongCategories) }
func SongCategoryOr(s string, def SongCategory) SongCategory { return enumOr(s, SongCategories, def) }

type Song struct {
	Base
	Title      string       `gorm:"size:191;not null;index" json:"title"`
	Artist     string       `gorm:"size:128" json:"artist"`
	Category   SongCategory `gorm:"size:16;not null;index" json:"category"`
	Key        string       `gorm:"size:8" json:"key"`
	BPM        int          `json:"bpm"`
	Lyrics     string       `gorm:"type:text" json:"lyrics"`
	Chords     string       `gorm:"type:text" json:"chords"`
	YoutubeURL string       `gorm:"size:512" json:"youtubeUrl"`
	AudioURL   string       `gorm:"size:512" json:"audioUrl"`
}

func (Song) TableName() string { return "songs" }

type SongCreate struct {
	Title      string `json:"title" binding:"required,notblank,min=1,max=191"`
	Artist     string `json:"artist" binding:"omitempty,max=128"`
	Category   string `json:"category" binding:"required,oneof=worship praise hymn offering communion other"`
	Key        string `json:"key" binding:"omitempty,max=8"`
	BPM        int    `json:"bpm" binding:"omitempty,min=20,max=300"`
	Lyrics     string `json:"lyrics"`
	Chords     string `json:"chords"`
	YoutubeURL string `json:"youtubeUrl" binding:"omitempty,url,max=512"`
	AudioURL   string `json:"audioUrl" binding:"omitempty,url,max=512"`
}

func (in *SongCreate) Model() *Song {
	return &Song{
		Title:      strings.TrimSpace(in.Title),
		Artist:     strings.TrimSpace(in.Artist),
		Category:   SongCategoryOr(in.Category, SongOther),
		Key:        strings.TrimSpace(in.Key),
		BPM:        in.BPM,
		Lyrics:     in.Lyrics,
		Chords:     in.Chords,
		YoutubeURL: strings.TrimSpace(in.YoutubeURL),
		AudioURL:   strings.TrimSpace(in.AudioURL),
	}
}

type SongPatch struct {
	Title      *string `json:"title" binding:"omitempty,notblank,min=1,max=191"`
	Artist     *string `json:"artist" binding:"omitempty,max=128"`
	Category   *string `json:"category" binding:"omitempty,oneof=worship praise hymn offering communion other"`
	Key        *string `json:"key" binding:"omitempty,max=8"`
	BPM        *int    `json:"bpm" binding:"omitempty,min=20,max=300"`
	Lyrics     *string `json:"lyrics"`
	Chords     *string `json:"chords"`
	YoutubeURL *string `json:"youtubeUrl" binding:"omitempty,url_or_empty,max=512"`
	AudioURL   *string `json:"audioUrl" binding:"omitempty,url_or_empty,max=512"`
}

func (p *SongPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "title", trimPtr(p.Title))
	setIf(m, "artist", trimPtr(p.Artist))
	setIf(m, "category", trimPtr(p.Category))
	setIf(m, "key", trimPtr(p.Key))
	setIf(m, "bpm", p.BPM)
	setIf(m, "lyrics", p.Lyrics)
	setIf(m, "chords", p.Chords)
	setIf(m, "youtube_url", trimPtr(p.YoutubeURL))
	setIf(m, "audio_url", trimPtr(p.AudioURL))
	return m
}
