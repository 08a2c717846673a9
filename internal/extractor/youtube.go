package extractor

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"askly/internal/domain"
)

const (
	defaultVideoTitle  = "Untitled Video"
	defaultChannelName = "Unknown Channel"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/|shorts/))([\w-]{11})`)
	playerPattern  = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*\{`)
)

// VideoID returns the 11 character id of a YouTube watch, youtu.be, embed
// or shorts URL.
func VideoID(rawURL string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// YouTube fetches the transcript of a video, preferring English captions.
func (e *Extractor) YouTube(ctx context.Context, rawURL string) (domain.Extraction, error) {
	rawURL = strings.TrimSpace(rawURL)
	id, ok := VideoID(rawURL)
	if !ok {
		return domain.Extraction{}, fmt.Errorf("%w: not a YouTube video URL: %q", domain.ErrValidation, rawURL)
	}

	page, err := e.get(ctx, e.youtubeURL+"/watch?v="+id)
	if err != nil {
		return domain.Extraction{}, err
	}
	player, ok := playerResponse(string(page))
	if !ok {
		return domain.Extraction{}, fmt.Errorf("video %s: %w", id, domain.ErrNoTranscript)
	}

	track, ok := pickTrack(gjson.Get(player, "captions.playerCaptionsTracklistRenderer.captionTracks").Array())
	if !ok {
		return domain.Extraction{}, fmt.Errorf("video %s: %w", id, domain.ErrNoTranscript)
	}
	trackURL, err := e.resolve(track.Get("baseUrl").String())
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("video %s: %w", id, domain.ErrNoTranscript)
	}
	captions, err := e.get(ctx, trackURL)
	if err != nil {
		return domain.Extraction{}, err
	}
	transcript, err := parseTranscript(captions)
	if err != nil {
		return domain.Extraction{}, domain.WithCause(domain.ErrExtraction, "the captions of video "+id+" could not be parsed", err)
	}
	if transcript == "" {
		return domain.Extraction{}, fmt.Errorf("video %s: %w", id, domain.ErrNoTranscript)
	}

	title := strings.TrimSpace(gjson.Get(player, "videoDetails.title").String())
	if title == "" {
		title = defaultVideoTitle
	}
	channel := strings.TrimSpace(gjson.Get(player, "videoDetails.author").String())
	if channel == "" {
		channel = defaultChannelName
	}
	return domain.Extraction{
		Text:   transcript,
		Source: domain.SourceYouTube,
		Metadata: domain.SourceMetadata{
			VideoID:     id,
			VideoTitle:  title,
			TextName:    title,
			ChannelName: channel,
			VideoURL:    rawURL,
		},
	}, nil
}

func (e *Extractor) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty caption url")
	}
	base, err := url.Parse(e.youtubeURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// pickTrack prefers an English track and falls back to the first one.
func pickTrack(tracks []gjson.Result) (gjson.Result, bool) {
	if len(tracks) == 0 {
		return gjson.Result{}, false
	}
	for _, t := range tracks {
		if lang := t.Get("languageCode").String(); lang == "en" || strings.HasPrefix(lang, "en-") {
			return t, true
		}
	}
	return tracks[0], true
}

// playerResponse cuts the player JSON object assigned in the watch page.
// Mentions of the variable that are not an object assignment are skipped.
func playerResponse(page string) (string, bool) {
	for _, loc := range playerPattern.FindAllStringIndex(page, -1) {
		obj, ok := balancedObject(page[loc[1]-1:])
		if ok && gjson.Valid(obj) {
			return obj, true
		}
	}
	return "", false
}

// balancedObject returns the JSON object at the start of s, honouring string
// literals and escapes.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	// srv3 format
	Paragraphs []struct {
		Text     string `xml:",chardata"`
		Segments []struct {
			Text string `xml:",chardata"`
		} `xml:"s"`
	} `xml:"body>p"`
}

// parseTranscript joins caption lines into one text. Caption payloads are
// entity-escaped twice, once for XML and once for HTML.
func parseTranscript(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}
	var parts []string
	for _, l := range tt.Lines {
		parts = append(parts, html.UnescapeString(l.Text))
	}
	for _, p := range tt.Paragraphs {
		text := p.Text
		for _, s := range p.Segments {
			text += s.Text
		}
		parts = append(parts, html.UnescapeString(text))
	}
	return collapse(strings.Join(parts, " ")), nil
}
