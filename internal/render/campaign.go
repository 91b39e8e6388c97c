package render

import (
	"traxiv/internal/domain"
	"traxiv/internal/ports"
)

// Campaign describes one annotation campaign: the body template, the tag
// that marks annotations as posted by this system, and per-journal banner
// images. The campaign tag is what purge later searches for, so it must
// stay stable across runs.
type Campaign struct {
	Template     string
	Tag          string
	PublisherTag string
	Banners      map[string]string
}

// Renderer returns the draft-producing function for this campaign.
// Rendering is pure: same record and link always produce the same draft.
func (c Campaign) Renderer() ports.RenderFunc {
	return func(rec domain.PreprintRecord, rpfLink string) (domain.Draft, error) {
		data := map[string]string{
			"banner":    c.Banners[rec.Journal],
			"journal":   rec.Journal,
			"rpf_link":  rpfLink,
			"paper_doi": rec.PublishedDOI,
		}

		body, err := Substitute(c.Template, data)
		if err != nil {
			return domain.Draft{}, err
		}

		tags := make([]string, 0, 4)
		for _, tag := range []string{c.Tag, c.PublisherTag, rec.Journal, rec.Category} {
			if tag != "" {
				tags = append(tags, tag)
			}
		}

		return domain.Draft{Body: body, Tags: tags}, nil
	}
}
