package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func testLead(id string, score int) model.ScoredLead {
	return model.ScoredLead{
		Record: model.CleanedRecord{
			ID:          id,
			Name:        "Lead " + id,
			Phone:       "555-0100",
			Website:     "https://example.com/" + id,
			Rating:      4.6,
			ReviewCount: 320,
			City:        "Austin",
		},
		Features:  model.FeatureSet{Vertical: model.VerticalRestaurants, OnPlatformB: true},
		Score:     score,
		Breakdown: model.Breakdown{model.FactorHighRating: score},
		Priority:  model.PriorityHigh,
		ContactBy: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	}
}

func fastPublisher(c Client) *Publisher {
	p := NewPublisher(c, "db")
	p.policy.Backoff = time.Millisecond
	p.policy.MaxBackoff = time.Millisecond
	return p
}

func TestLeadProperties(t *testing.T) {
	t.Parallel()

	props := LeadProperties(testLead("r1", 30))

	title, ok := props["Name"].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Lead r1", title.Title[0].Text.Content)

	id, ok := props[LeadIDProperty].(notionapi.RichTextProperty)
	require.True(t, ok)
	assert.Equal(t, "r1", id.RichText[0].Text.Content)

	assert.Equal(t, notionapi.NumberProperty{Number: 30}, props["Score"])
	assert.Equal(t, "High", props["Priority"].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "restaurants", props["Vertical"].(notionapi.SelectProperty).Select.Name)
	assert.True(t, props["On Competitor"].(notionapi.CheckboxProperty).Checkbox)

	date := props["Contact By"].(notionapi.DateProperty)
	assert.Equal(t, 7, time.Time(*date.Date.Start).Day())

	assert.Equal(t, "https://example.com/r1", props["Website"].(notionapi.URLProperty).URL)
	assert.Equal(t, "555-0100", props["Phone"].(notionapi.PhoneNumberProperty).PhoneNumber)
}

func TestLeadProperties_OmitsBlankContact(t *testing.T) {
	t.Parallel()

	l := testLead("r1", 30)
	l.Record.Phone = ""
	l.Record.Website = ""
	props := LeadProperties(l)
	assert.NotContains(t, props, "Phone")
	assert.NotContains(t, props, "Website")
}

func TestPublish_CreatesAndUpdates(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{leadPage("page-1", "r1")},
	}, nil).Once()
	mc.On("UpdatePage", ctx, "page-1", mock.AnythingOfType("*notionapi.PageUpdateRequest")).
		Return(&notionapi.Page{ID: "page-1"}, nil).Once()
	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		return req.Parent.DatabaseID == "db" && req.Parent.Type == notionapi.ParentTypeDatabaseID
	})).Return(&notionapi.Page{ID: "page-2"}, nil).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r1", 40), testLead("r2", 35)})
	require.NoError(t, err)
	assert.Equal(t, &PublishResult{Created: 1, Updated: 1}, res)
	assert.Equal(t, "created=1 updated=1 failed=0", res.Summary())
	mc.AssertExpectations(t)
}

func TestPublish_DuplicateLeadInBatchUpdatesSecondTime(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(&notionapi.Page{ID: "page-9"}, nil).Once()
	mc.On("UpdatePage", ctx, "page-9", mock.Anything).Return(&notionapi.Page{ID: "page-9"}, nil).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r9", 40), testLead("r9", 40)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	mc.AssertExpectations(t)
}

func TestPublish_FailedLeadIsCounted(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, &notionapi.Error{Status: 400, Message: "bad"}).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(&notionapi.Page{ID: "page-2"}, nil).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r1", 40), testLead("r2", 35)})
	require.NoError(t, err)
	assert.Equal(t, &PublishResult{Created: 1, Failed: 1}, res)
	mc.AssertExpectations(t)
}

func TestPublish_RetriesTransient(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, classify(&notionapi.Error{Status: 502})).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(&notionapi.Page{ID: "page-1"}, nil).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r1", 40)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	mc.AssertExpectations(t)
}

func TestPublish_ListFailureAborts(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(nil, assert.AnError).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r1", 40)})
	require.Error(t, err)
	assert.Nil(t, res)
	mc.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything)
}

func TestPublish_Cancelled(t *testing.T) {
	mc := new(MockClient)
	ctx, cancel := context.WithCancel(context.Background())

	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(&notionapi.Page{ID: "page-1"}, nil).Once()

	res, err := fastPublisher(mc).Publish(ctx, []model.ScoredLead{testLead("r1", 40), testLead("r2", 35)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Created)
	mc.AssertExpectations(t)
}
