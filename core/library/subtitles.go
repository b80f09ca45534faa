package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/utils"
)

var subtitleExtensions = map[string]string{
	".srt": "subrip",
	".ass": "ass",
	".ssa": "ssa",
	".vtt": "webvtt",
	".sub": "microdvd",
	".sup": "pgssub",
}

// IsSubtitleFile reports whether path has a known subtitle extension.
func IsSubtitleFile(path string) bool {
	_, ok := subtitleExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DiscoverSubtitles lists the sidecar subtitle files of a reference file:
// files in the same folder named "<stem>.<ext>" or "<stem>.<lang>[.forced].<ext>".
func DiscoverSubtitles(refPath string) []media.MediaStream {
	dir := filepath.Dir(refPath)
	stem := utils.Stem(refPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsSubtitleFile(e.Name()) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if base == stem || strings.HasPrefix(base, stem+".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	subs := make([]media.MediaStream, 0, len(names))
	for i, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		stream := media.MediaStream{
			Index:      i,
			Type:       media.StreamSubtitle,
			Codec:      subtitleExtensions[ext],
			IsExternal: true,
			Path:       filepath.Join(dir, name),
		}
		middle := strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), stem)
		for _, part := range strings.Split(strings.Trim(middle, "."), ".") {
			switch strings.ToLower(part) {
			case "":
			case "forced":
				stream.IsForced = true
			case "default":
				stream.IsDefault = true
			default:
				if stream.Language == "" {
					stream.Language = strings.ToLower(part)
				}
			}
		}
		subs = append(subs, stream)
	}
	return subs
}

// ReferenceFor returns the reference file a subtitle sidecar belongs to, if present.
func ReferenceFor(subtitlePath, pattern string) (string, bool) {
	dir := filepath.Dir(subtitlePath)
	base := strings.TrimSuffix(filepath.Base(subtitlePath), filepath.Ext(subtitlePath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	best := ""
	for _, e := range entries {
		if e.IsDir() || !utils.MatchBase(pattern, e.Name()) {
			continue
		}
		stem := utils.Stem(e.Name())
		if (base == stem || strings.HasPrefix(base, stem+".")) && len(stem) > len(utils.Stem(best)) {
			best = e.Name()
		}
	}
	if best == "" {
		return "", false
	}
	return filepath.Join(dir, best), true
}
