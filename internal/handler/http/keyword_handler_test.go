package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetKeyword_Success(t *testing.T) {
	// Arrange
	mux, mocks := setupTestRouter()

	cpc := 2.5
	analysis := &service.KeywordAnalysis{
		Keyword:      &domain.Keyword{ID: "kw-1", Word: "cloud", SearchVolume: 12000, CPC: &cpc},
		TotalDomains: 4,
		Trends: []domain.KeywordTrend{
			{Date: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), DomainCount: 40, NewDomains: 3},
			{Date: time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC), DomainCount: 37, NewDomains: 1},
		},
		TopDomains: []*domain.Domain{sampleDomain("cloudhosting.net", 12000, 20000)},
	}
	mocks.keywords.On("Analyze", mock.Anything, "cloud").Return(analysis, nil)

	// Act
	w := doRequest(mux, "GET", "/api/v1/keywords/cloud", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "cloud", data["word"])
	assert.Equal(t, float64(12000), data["searchVolume"])
	assert.Equal(t, 2.5, data["cpc"])
	assert.Nil(t, data["competition"])
	assert.Equal(t, float64(4), data["totalDomains"])

	trends := data["trends"].([]any)
	require.Len(t, trends, 2)
	assert.Equal(t, "2026-05-31", trends[0].(map[string]any)["date"])

	top := data["topDomains"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "cloudhosting.net", top[0].(map[string]any)["name"])

	mocks.assertExpectations(t)
}

func TestGetKeyword_NotFound(t *testing.T) {
	mux, mocks := setupTestRouter()

	mocks.keywords.On("Analyze", mock.Anything, "nothing").Return(nil, domain.NewNotFoundError("keyword", "nothing"))

	w := doRequest(mux, "GET", "/api/v1/keywords/nothing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Code)
}

func TestUpdateKeyword(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		// Arrange
		mux, mocks := setupTestRouter()

		volume := int64(500)
		expected := domain.KeywordMetrics{SearchVolume: &volume}
		mocks.keywords.On("UpdateMetrics", mock.Anything, "tech", expected).
			Return(&domain.Keyword{Word: "tech", SearchVolume: 500}, nil)

		// Act
		w := doRequest(mux, "PUT", "/api/v1/keywords/tech", `{"searchVolume": 500}`)

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(500), decodeData(t, w)["searchVolume"])
		mocks.assertExpectations(t)
	})

	t.Run("unknown field", func(t *testing.T) {
		mux, mocks := setupTestRouter()

		w := doRequest(mux, "PUT", "/api/v1/keywords/tech", `{"volume": 500}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mocks.keywords.AssertNotCalled(t, "UpdateMetrics", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid competition", func(t *testing.T) {
		mux, mocks := setupTestRouter()

		competition := 1.5
		mocks.keywords.On("UpdateMetrics", mock.Anything, "tech", domain.KeywordMetrics{Competition: &competition}).
			Return(nil, domain.NewValidationError("competition", "must be between 0 and 1"))

		w := doRequest(mux, "PUT", "/api/v1/keywords/tech", `{"competition": 1.5}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Details, "competition")
	})
}

func TestRecordTrend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, mocks := setupTestRouter()

		day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
		mocks.keywords.On("RecordTrend", mock.Anything, "cloud", day, 12, 2).
			Return(&domain.KeywordTrend{KeywordID: "kw-1", Date: day, DomainCount: 12, NewDomains: 2}, nil)

		w := doRequest(mux, "POST", "/api/v1/keywords/cloud/trends", `{"date": "2026-05-04", "domainCount": 12, "newDomains": 2}`)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "2026-05-04", data["date"])
		assert.Equal(t, float64(12), data["domainCount"])
		mocks.assertExpectations(t)
	})

	t.Run("bad date", func(t *testing.T) {
		mux, mocks := setupTestRouter()

		w := doRequest(mux, "POST", "/api/v1/keywords/cloud/trends", `{"date": "04/05/2026", "domainCount": 12}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Details, "date")
		mocks.keywords.AssertNotCalled(t, "RecordTrend", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetTrends_KeywordHistory(t *testing.T) {
	// Arrange
	mux, mocks := setupTestRouter()

	query := service.TrendQuery{Keyword: "cloud", PeriodDays: 7, Limit: service.DefaultTrendLimit}
	result := &service.TrendsResult{History: &service.KeywordHistory{
		Keyword: &domain.Keyword{Word: "cloud"},
		Trends: []domain.KeywordTrend{
			{Date: time.Date(2026, 5, 28, 0, 0, 0, 0, time.UTC), DomainCount: 10},
			{Date: time.Date(2026, 5, 29, 0, 0, 0, 0, time.UTC), DomainCount: 11, NewDomains: 1},
		},
	}}
	mocks.keywords.On("Trends", mock.Anything, query).Return(result, nil)

	// Act
	w := doRequest(mux, "GET", "/api/v1/trends?keyword=cloud&period=7d", "")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "cloud", data["keyword"])
	trends := data["trends"].([]any)
	require.Len(t, trends, 2)
	assert.Equal(t, "2026-05-28", trends[0].(map[string]any)["date"])

	mocks.assertExpectations(t)
}

func TestGetTrends_Trending(t *testing.T) {
	mux, mocks := setupTestRouter()

	query := service.TrendQuery{PeriodDays: service.DefaultTrendPeriodDays, Limit: 2}
	result := &service.TrendsResult{Trending: []service.TrendingKeyword{
		{
			Keyword:       &domain.Keyword{Word: "blockchain", SearchVolume: 40000},
			RecentTrend:   &domain.KeywordTrend{Date: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), DomainCount: 80},
			SampleDomains: []string{"blockchain.tech"},
		},
		{
			Keyword: &domain.Keyword{Word: "marketing", SearchVolume: 35000},
		},
	}}
	mocks.keywords.On("Trends", mock.Anything, query).Return(result, nil)

	w := doRequest(mux, "GET", "/api/v1/trends?limit=2", "")

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []TrendingKeywordResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, "blockchain", response.Data[0].Word)
	require.NotNil(t, response.Data[0].RecentTrend)
	assert.Equal(t, 80, response.Data[0].RecentTrend.DomainCount)
	assert.Nil(t, response.Data[1].RecentTrend)
	assert.Empty(t, response.Data[1].SampleDomains)
}

func TestGetTrends_RejectsBadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown parameter", "?keywords=cloud"},
		{"bad period", "?period=month"},
		{"bad limit", "?limit=many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, mocks := setupTestRouter()

			w := doRequest(mux, "GET", "/api/v1/trends"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mocks.keywords.AssertNotCalled(t, "Trends", mock.Anything, mock.Anything)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", service.DefaultTrendPeriodDays, false},
		{"30d", 30, false},
		{"7", 7, false},
		{"90D", 90, false},
		{"d", 0, true},
		{"1w", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parsePeriod(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
