package overpass

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const crossingFixture = `{
  "version": 0.6,
  "generator": "Overpass API",
  "elements": [
    {"type": "node", "id": 1, "lat": 50.6000, "lon": 5.5000},
    {"type": "node", "id": 2, "lat": 50.6010, "lon": 5.5000, "tags": {"rcn_ref": "42"}},
    {"type": "node", "id": 3, "lat": 50.6020, "lon": 5.5000},
    {"type": "node", "id": 4, "lat": 50.6010, "lon": 5.5020},
    {"type": "way", "id": 10, "nodes": [1, 2, 3], "tags": {"highway": "residential", "name": "Rue Haute"}},
    {"type": "way", "id": 11, "nodes": [2, 4], "tags": {"highway": "cycleway", "ref": "C12"}},
    {"type": "way", "id": 12, "nodes": [1, 4], "tags": {"building": "yes"}},
    {"type": "area", "id": 3600001, "tags": {"admin_level": "8", "boundary": "administrative", "name": "Liège"}},
    {"type": "area", "id": 3600002, "tags": {"admin_level": "2", "boundary": "administrative", "name": "Belgique"}},
    {"type": "node", "id": 99, "lat": 50.64, "lon": 5.57, "tags": {"place": "city", "name": "Liège"}}
  ]
}`

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = time.Millisecond
	return cfg
}

func TestQuery_Success(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, crossingFixture), nil).Once()

	client := NewClientWithHTTPDoer(testConfig(), mockHTTP, nil)

	response, err := client.Query(context.Background(), []string{"node(1);out;"})
	require.NoError(t, err)
	require.NotNil(t, response)

	assert.Len(t, response.Elements, 10)
	assert.Len(t, response.Nodes(), 5)

	ways := response.Ways()
	require.Len(t, ways, 2, "Only highways are streets")
	assert.Equal(t, "Rue Haute", ways[0].Name())
	assert.Equal(t, "C12", ways[1].Name(), "Ref is the name fallback")
	assert.Equal(t, []osm.NodeID{1, 2, 3}, ways[0].Nodes)

	areas := response.AdminAreas()
	require.Len(t, areas, 2)
	assert.Equal(t, 8, areas[0].AdminLevel())

	places := response.Places()
	require.Len(t, places, 1)
	assert.Equal(t, "city", places[0].Tags.Find("place"))

	node := response.Nodes()[2]
	assert.Equal(t, "42", node.Tags.Find("rcn_ref"))
	assert.Equal(t, geo.LatLng{Lat: 50.6010, Lng: 5.5000}, node.LatLng())

	mockHTTP.AssertExpectations(t)
}

func TestQuery_RequestBody(t *testing.T) {
	var received url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "routeicon-test", r.Header.Get("User-Agent"))
		assert.NoError(t, r.ParseForm())
		received = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.URL = server.URL
	cfg.Timeout = 25 * time.Second
	cfg.UserAgent = "routeicon-test"
	client := NewClient(cfg, nil)

	response, err := client.Query(context.Background(), []string{"way[highway](around:300,50.6,5.5);", "out;"})
	require.NoError(t, err)
	assert.Empty(t, response.Elements)

	assert.Equal(t, "[out:json][timeout:25];way[highway](around:300,50.6,5.5);out;", received.Get("data"))
}

func TestQuery_NoQueries(t *testing.T) {
	client := NewClientWithHTTPDoer(testConfig(), &MockHTTPDoer{}, nil)

	_, err := client.Query(context.Background(), nil)
	assert.Error(t, err)
}

func TestQuery_RetriesTransientErrors(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(429, "rate limited"), nil).Once()
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(504, "gateway timeout"), nil).Once()
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, crossingFixture), nil).Once()

	client := NewClientWithHTTPDoer(testConfig(), mockHTTP, nil)

	response, err := client.Query(context.Background(), []string{"out;"})
	require.NoError(t, err)
	assert.Len(t, response.Elements, 10)

	mockHTTP.AssertNumberOfCalls(t, "Do", 3)
}

func TestQuery_PermanentError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(400, " parse error: line 1 \n"), nil).Once()

	client := NewClientWithHTTPDoer(testConfig(), mockHTTP, nil)

	_, err := client.Query(context.Background(), []string{"bogus"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 400, statusErr.Code)
	assert.Equal(t, "parse error: line 1", statusErr.Body)
	assert.False(t, statusErr.Temporary())

	mockHTTP.AssertNumberOfCalls(t, "Do", 1)
}

func TestQuery_GivesUpAfterRetries(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	for i := 0; i < 2; i++ {
		mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
			createMockResponse(503, "busy"), nil).Once()
	}

	cfg := testConfig()
	cfg.Retries = 2
	client := NewClientWithHTTPDoer(cfg, mockHTTP, nil)

	_, err := client.Query(context.Background(), []string{"out;"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 503, statusErr.Code)
	mockHTTP.AssertNumberOfCalls(t, "Do", 2)
}

func TestQuery_CancelledContext(t *testing.T) {
	client := NewClientWithHTTPDoer(testConfig(), &MockHTTPDoer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Query(ctx, []string{"out;"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery_InvalidJSON(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, "<osm/>"), nil).Once()

	client := NewClientWithHTTPDoer(testConfig(), mockHTTP, nil)

	_, err := client.Load(context.Background(), []string{"out;"}, geo.LatLng{Lat: 50, Lng: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode overpass response")
}

func TestResponse_NilHelpers(t *testing.T) {
	var response *Response

	assert.Empty(t, response.Nodes())
	assert.Empty(t, response.Ways())
	assert.Empty(t, response.AdminAreas())
	assert.Empty(t, response.Places())
}
