package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ironsheep/drawing-inspector/internal/model"
	"github.com/ironsheep/drawing-inspector/internal/status"
)

func f64(v float64) *float64 { return &v }

func fixture() []model.ComparisonItem {
	return []model.ComparisonItem{
		{BalloonNumber: 1, Status: status.Pass, MasterNominal: f64(40)},
		{BalloonNumber: 3, Status: status.Fail, MasterNominal: f64(12.5), FeatureDescription: "hole A diameter",
			CheckHighlightRegion: &model.Region{X: 10, Y: 10, Width: 50, Height: 30}},
		{BalloonNumber: 5, Status: status.Pending},
		{BalloonNumber: 7, Status: status.Warning, MasterNominal: f64(8)},
		{BalloonNumber: 9, Status: status.Missing},
	}
}

func TestClickBalloonToggles(t *testing.T) {
	c := New(fixture())

	s := c.ClickBalloon(3)
	assert.Equal(t, BalloonSelected, s.Phase)
	require.NotNil(t, s.Balloon)
	assert.Equal(t, 3, *s.Balloon)
	require.NotNil(t, s.Highlight)
	require.NotNil(t, s.Highlight.Item)
	assert.Equal(t, 3, s.Highlight.Item.BalloonNumber)
	assert.Nil(t, s.Banner)

	s = c.ClickBalloon(3)
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Balloon)
	assert.Nil(t, s.Highlight)
}

func TestClickPassBalloonHasNoHighlight(t *testing.T) {
	c := New(fixture())
	s := c.ClickBalloon(1)
	assert.Equal(t, BalloonSelected, s.Phase)
	assert.Nil(t, s.Highlight)
}

func TestClickUnknownBalloon(t *testing.T) {
	c := New(nil)
	s := c.ClickBalloon(42)
	assert.Equal(t, BalloonSelected, s.Phase)
	assert.Nil(t, s.Highlight)
}

func TestClickRowSharesSelection(t *testing.T) {
	c := New(fixture())
	c.ClickBalloon(7)
	s := c.ClickRow(7)
	assert.Equal(t, Idle, s.Phase)

	s = c.ClickRow(9)
	require.NotNil(t, s.Balloon)
	assert.Equal(t, 9, *s.Balloon)
}

func TestClickFindingMatched(t *testing.T) {
	c := New(fixture())
	f := model.Finding{Location: "near hole A", Value: model.StringValue("12.500")}

	s := c.ClickFinding(model.CategoryMissingDim, 0, f)
	assert.Equal(t, FindingSelected, s.Phase)
	assert.Equal(t, "missing_dim:0", s.FindingKey)
	require.NotNil(t, s.Balloon)
	assert.Equal(t, 3, *s.Balloon)
	require.NotNil(t, s.Highlight)
	require.NotNil(t, s.Highlight.Item)
	assert.Equal(t, status.Fail, s.Highlight.Status())
	assert.NotNil(t, s.Highlight.Region(model.SideCheck))

	require.NotNil(t, s.Banner)
	assert.Equal(t, "near hole A", s.Banner.Location)
	assert.Equal(t, "12.500", s.Banner.Value)
	assert.Equal(t, model.CategoryMissingDim, s.Banner.Category)

	s = c.ClickFinding(model.CategoryMissingDim, 0, f)
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Banner)
	assert.Nil(t, s.Balloon)
	assert.Nil(t, s.Highlight)
}

func TestClickFindingUnmatched(t *testing.T) {
	c := New(fixture())
	s := c.ClickFinding(model.CategoryMissingTol, 2, model.Finding{Location: "chamfer", Value: model.StringValue("C1")})
	assert.Equal(t, FindingSelected, s.Phase)
	assert.Nil(t, s.Balloon)
	assert.Nil(t, s.Highlight)
	require.NotNil(t, s.Banner)
	assert.Nil(t, s.Banner.Balloon)
	assert.Equal(t, "C1", s.Banner.Value)
}

func TestClickFindingMatchedPassIsSynthetic(t *testing.T) {
	c := New(fixture())
	s := c.ClickFinding(model.CategoryModified, 0, model.Finding{Location: "length", MasterValue: model.NumberValue(40)})
	require.NotNil(t, s.Balloon)
	assert.Equal(t, 1, *s.Balloon)
	require.NotNil(t, s.Highlight)
	assert.Nil(t, s.Highlight.Item)
	require.NotNil(t, s.Highlight.Finding)
	assert.Equal(t, "40", s.Highlight.Finding.Value)
	assert.Equal(t, model.CategoryModified, s.Highlight.Finding.Category)
	assert.Nil(t, s.Highlight.Region(model.SideMaster))
	assert.Equal(t, status.Fail, s.Highlight.Status())
}

func TestDifferentFindingReplacesSelection(t *testing.T) {
	c := New(fixture())
	c.ClickFinding(model.CategoryMissingDim, 0, model.Finding{Value: model.NumberValue(12.5)})
	s := c.ClickFinding(model.CategoryMissingDim, 1, model.Finding{Value: model.NumberValue(8)})
	assert.Equal(t, "missing_dim:1", s.FindingKey)
	require.NotNil(t, s.Balloon)
	assert.Equal(t, 7, *s.Balloon)
}

func TestBalloonClickLeavesFinding(t *testing.T) {
	c := New(fixture())
	c.ClickFinding(model.CategoryMissingDim, 0, model.Finding{Value: model.NumberValue(12.5)})
	s := c.ClickBalloon(3)
	assert.Equal(t, BalloonSelected, s.Phase)
	assert.Nil(t, s.Banner)
	assert.Empty(t, s.FindingKey)
}

func TestKeyboardCycle(t *testing.T) {
	items := []model.ComparisonItem{
		{BalloonNumber: 1, Status: status.Pass},
		{BalloonNumber: 3, Status: status.Fail},
		{BalloonNumber: 5, Status: status.NotFound},
		{BalloonNumber: 7, Status: status.Deviation},
		{BalloonNumber: 9, Status: status.Missing},
	}
	c := New(items)

	var got []int
	for i := 0; i < 4; i++ {
		s := c.Key(KeyNext, false)
		require.NotNil(t, s.Balloon)
		got = append(got, *s.Balloon)
	}
	assert.Equal(t, []int{3, 7, 9, 3}, got)

	s := c.Key(KeyUp, false)
	assert.Equal(t, 9, *s.Balloon)
	s = c.Key(KeyPrev, false)
	assert.Equal(t, 7, *s.Balloon)
	s = c.Key(KeyDown, false)
	assert.Equal(t, 9, *s.Balloon)
	require.NotNil(t, s.Highlight)
	assert.Equal(t, 9, s.Highlight.Item.BalloonNumber)
}

func TestKeyboardBackwardFromIdle(t *testing.T) {
	c := New(fixture())
	s := c.Key(KeyUp, false)
	assert.Equal(t, 9, *s.Balloon)
}

func TestKeyboardClearsFinding(t *testing.T) {
	c := New(fixture())
	c.ClickFinding(model.CategoryMissingDim, 0, model.Finding{Location: "chamfer", Value: model.StringValue("C1")})
	s := c.Key(KeyNext, false)
	assert.Equal(t, BalloonSelected, s.Phase)
	assert.Equal(t, 3, *s.Balloon)
	assert.Nil(t, s.Banner)
}

func TestKeyboardIgnored(t *testing.T) {
	c := New(fixture())
	before := c.State()

	assert.Equal(t, before, c.Key(KeyNext, true), "typing in a text input")
	assert.Equal(t, before, c.Key("x", false), "unbound key")

	empty := New([]model.ComparisonItem{{BalloonNumber: 1, Status: status.Pass}})
	s := empty.Key(KeyNext, false)
	assert.Equal(t, Idle, s.Phase)
}

func TestEscape(t *testing.T) {
	c := New(fixture())
	c.ClickFinding(model.CategoryMissingDim, 0, model.Finding{Value: model.NumberValue(12.5)})
	s := c.Key(KeyEscape, false)
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Balloon)
	assert.Nil(t, s.Highlight)
	assert.Nil(t, s.Banner)

	v := s.Version
	assert.Equal(t, v, c.Escape().Version, "escape while idle is a no-op")
}

func TestSetItemsRederives(t *testing.T) {
	c := New(fixture())
	c.ClickBalloon(1)
	assert.Nil(t, c.State().Highlight)

	items := fixture()
	items[0].Status = status.Fail
	s := c.SetItems(items)
	require.NotNil(t, s.Highlight)
	assert.Equal(t, 1, s.Highlight.Item.BalloonNumber)

	c.ClickFinding(model.CategoryMissingDim, 0, model.Finding{Value: model.NumberValue(8)})
	assert.Equal(t, 7, *c.State().Balloon)
	s = c.SetItems(nil)
	assert.Equal(t, FindingSelected, s.Phase)
	assert.Nil(t, s.Balloon)
	require.NotNil(t, s.Banner)
}

func TestReset(t *testing.T) {
	c := New(fixture())
	c.ClickBalloon(3)
	s := c.Reset(nil)
	assert.Equal(t, Idle, s.Phase)
	s = c.Key(KeyNext, false)
	assert.Equal(t, Idle, s.Phase)
}

func TestConcurrentTransitions(t *testing.T) {
	c := New(fixture())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				c.ClickBalloon(3)
			case 1:
				c.Key(KeyNext, false)
			case 2:
				c.ClickFinding(model.CategoryMissingDim, i, model.Finding{Value: model.NumberValue(8)})
			default:
				c.Escape()
			}
		}(i)
	}
	wg.Wait()
	checkInvariant(t, c.State())
}

func checkInvariant(t require.TestingT, s State) {
	switch s.Phase {
	case Idle:
		require.Nil(t, s.Balloon)
		require.Nil(t, s.Highlight)
		require.Nil(t, s.Banner)
		require.Empty(t, s.FindingKey)
	case BalloonSelected:
		require.NotNil(t, s.Balloon)
		require.Nil(t, s.Banner)
		require.Empty(t, s.FindingKey)
	case FindingSelected:
		require.NotNil(t, s.Banner)
		require.NotEmpty(t, s.FindingKey)
	}
	if s.Highlight != nil {
		require.True(t, (s.Highlight.Item == nil) != (s.Highlight.Finding == nil))
		if s.Highlight.Item != nil {
			require.NotEqual(t, status.Pass, s.Highlight.Item.Status)
		}
	}
}

func TestInvariantsHoldForAnyEventSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(fixture())
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			var s State
			switch rapid.IntRange(0, 4).Draw(t, "event") {
			case 0:
				s = c.ClickBalloon(rapid.SampledFrom([]int{1, 3, 5, 7, 9, 11}).Draw(t, "n"))
			case 1:
				s = c.ClickFinding(model.CategoryMissingDim, rapid.IntRange(0, 2).Draw(t, "idx"),
					model.Finding{Value: model.NumberValue(rapid.SampledFrom([]float64{12.5, 8, 40, 99}).Draw(t, "v"))})
			case 2:
				s = c.Key(rapid.SampledFrom([]string{KeyNext, KeyPrev, KeyDown, KeyUp, "q"}).Draw(t, "key"), rapid.Bool().Draw(t, "input"))
			case 3:
				s = c.Escape()
			default:
				s = c.State()
			}
			checkInvariant(t, s)
		}
	})
}
