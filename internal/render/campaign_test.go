package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traxiv/internal/domain"
)

func TestCampaignRenderer(t *testing.T) {
	t.Parallel()

	campaign := Campaign{
		Template:     "Published in $journal. Review process: $rpf_link ($paper_doi) $banner",
		Tag:          "PeerReviewed",
		PublisherTag: "EMBOPress",
		Banners: map[string]string{
			"EMBO reports": "https://img.example.org/embr.jpg",
		},
	}

	rec := domain.PreprintRecord{
		PreprintDOI:  "10.1101/001",
		PublishedDOI: "10.15252/embr.201847097",
		Journal:      "EMBO reports",
		Category:     "Cell Biology",
	}

	draft, err := campaign.Renderer()(rec, "https://rpf.example.org/embr.pdf")
	require.NoError(t, err)

	assert.Equal(t,
		"Published in EMBO reports. Review process: https://rpf.example.org/embr.pdf (10.15252/embr.201847097) https://img.example.org/embr.jpg",
		draft.Body)
	assert.Equal(t, []string{"PeerReviewed", "EMBOPress", "EMBO reports", "Cell Biology"}, draft.Tags)
}

func TestCampaignRendererDeterministic(t *testing.T) {
	t.Parallel()

	campaign := Campaign{Template: "$rpf_link", Tag: "PeerReviewed"}
	rec := domain.PreprintRecord{PublishedDOI: "10.15252/msb.20198849", Journal: "Molecular Systems Biology"}

	first, err := campaign.Renderer()(rec, "https://rpf.example.org/msb.pdf")
	require.NoError(t, err)
	second, err := campaign.Renderer()(rec, "https://rpf.example.org/msb.pdf")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCampaignRendererSkipsEmptyTags(t *testing.T) {
	t.Parallel()

	campaign := Campaign{Template: "body", Tag: "PeerReviewed"}
	rec := domain.PreprintRecord{PublishedDOI: "10.15252/embj.1"}

	draft, err := campaign.Renderer()(rec, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"PeerReviewed"}, draft.Tags)
}

func TestCampaignRendererUnboundPlaceholder(t *testing.T) {
	t.Parallel()

	campaign := Campaign{Template: "$no_such_value", Tag: "PeerReviewed"}
	_, err := campaign.Renderer()(domain.PreprintRecord{PublishedDOI: "10.15252/embj.1"}, "")
	require.Error(t, err)
}
