package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedMeasurer struct{ h float64 }

func (m fixedMeasurer) Height(Block) float64 { return m.h }
func (m fixedMeasurer) SectionGap() float64  { return 0 }

func blocks(n int) []Block {
	out := make([]Block, n)
	for i := range out {
		out[i] = Block{Kind: BlockText, Text: "x"}
	}
	return out
}

func pageOf(pages []Page, key string) map[int]bool {
	seen := map[int]bool{}
	for i, p := range pages {
		for _, it := range p.Items {
			if it.SectionKey == key {
				seen[i] = true
			}
		}
	}
	return seen
}

func TestPaginateMovesCardToFreshPage(t *testing.T) {
	sections := []SectionLayout{
		{Key: "intro", Blocks: blocks(3)},
		{Key: "card", Card: true, Blocks: blocks(3)},
	}
	pages := Paginate(sections, 50, fixedMeasurer{h: 10})
	require.Len(t, pages, 2)
	require.Equal(t, map[int]bool{1: true}, pageOf(pages, "card"))
	require.True(t, pages[1].Items[0].CardStart)
	require.True(t, pages[1].Items[2].CardEnd)
}

func TestPaginateSplitsFlowSections(t *testing.T) {
	pages := Paginate([]SectionLayout{{Key: "long", Blocks: blocks(12)}}, 50, fixedMeasurer{h: 10})
	require.Len(t, pages, 3)
	require.Len(t, pages[0].Items, 5)
}

func TestPaginateOversizeCardGetsOwnPages(t *testing.T) {
	sections := []SectionLayout{
		{Key: "before", Blocks: blocks(1)},
		{Key: "huge", Card: true, Blocks: blocks(7)},
		{Key: "after", Blocks: blocks(1)},
	}
	pages := Paginate(sections, 50, fixedMeasurer{h: 10})
	huge := pageOf(pages, "huge")
	require.Len(t, huge, 2)
	for i := range huge {
		for _, it := range pages[i].Items {
			require.Equal(t, "huge", it.SectionKey)
		}
	}
	require.False(t, pageOf(pages, "before")[1])
}

func TestPaginateHonoursBreakHints(t *testing.T) {
	sections := []SectionLayout{
		{Key: "cover", BreakAfter: true, Blocks: blocks(1)},
		{Key: "a", Blocks: blocks(1)},
		{Key: "b", BreakBefore: true, Blocks: blocks(1)},
	}
	pages := Paginate(sections, 100, fixedMeasurer{h: 10})
	require.Len(t, pages, 3)
	require.Equal(t, "cover", pages[0].Items[0].SectionKey)
	require.Equal(t, "a", pages[1].Items[0].SectionKey)
	require.Equal(t, "b", pages[2].Items[0].SectionKey)
}

func TestPaginateKeepsHeadingWithNextBlock(t *testing.T) {
	sections := []SectionLayout{
		{Key: "a", Blocks: blocks(4)},
		{Key: "b", Blocks: []Block{{Kind: BlockHeading, Text: "H"}, {Kind: BlockText, Text: "body"}}},
	}
	pages := Paginate(sections, 50, fixedMeasurer{h: 10})
	require.Len(t, pages, 2)
	require.Equal(t, BlockHeading, pages[1].Items[0].Block.Kind)
}

func TestPaginateEmptyDocumentHasOnePage(t *testing.T) {
	require.Len(t, Paginate(nil, 50, fixedMeasurer{h: 10}), 1)
}

func grouped(n, group int) []Block {
	out := blocks(n)
	for i := range out {
		out[i].Group = group
	}
	return out
}

func TestPaginateKeepsGeneratorGroupsTogether(t *testing.T) {
	var bs []Block
	bs = append(bs, blocks(3)...)
	bs = append(bs, grouped(3, 1)...)
	bs = append(bs, grouped(2, 2)...)
	pages := Paginate([]SectionLayout{{Key: "photos", Blocks: bs}}, 50, fixedMeasurer{h: 10})

	require.Len(t, pages, 2)
	require.Len(t, pages[0].Items, 3)
	for _, it := range pages[0].Items {
		require.Zero(t, it.Block.Group)
	}
	require.Len(t, pages[1].Items, 5)
	require.Equal(t, 1, pages[1].Items[0].Block.Group)
	require.Equal(t, 2, pages[1].Items[4].Block.Group)
}

func TestPaginateOversizeGroupStartsFreshPage(t *testing.T) {
	var bs []Block
	bs = append(bs, blocks(2)...)
	bs = append(bs, grouped(7, 1)...)
	pages := Paginate([]SectionLayout{{Key: "notes", Blocks: bs}}, 50, fixedMeasurer{h: 10})

	require.Len(t, pages, 3)
	require.Len(t, pages[0].Items, 2)
	require.Len(t, pages[1].Items, 5)
	require.Len(t, pages[2].Items, 2)
	for _, it := range pages[1].Items {
		require.Equal(t, 1, it.Block.Group)
	}
}
