// TMDb API implementation of [Catalog]
//
// Response types based on https://developer.themoviedb.org/reference
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultTMDbBaseURL    = "https://api.themoviedb.org/3"
	defaultTMDbApproveURL = "https://www.themoviedb.org/authenticate"

	// TMDb status_code for "Duplicate entry: The data you tried to submit already exists."
	tmdbStatusDuplicate = 8
)

// flexibleID decodes identifiers TMDb returns either as numbers or strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// TMDbMovie is a movie result from /search/movie.
type TMDbMovie struct {
	ID            flexibleID `json:"id"`
	Title         string     `json:"title"`
	OriginalTitle string     `json:"original_title"`
	ReleaseDate   string     `json:"release_date"`
	Popularity    float64    `json:"popularity"`
}

// TMDbSearchResponse is a page of search results.
type TMDbSearchResponse struct {
	Page         int         `json:"page"`
	Results      []TMDbMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// TMDbAccount is the account owning the session.
type TMDbAccount struct {
	ID       flexibleID `json:"id"`
	Username string     `json:"username"`
}

// TMDbList is a list summary from /account/{id}/lists.
type TMDbList struct {
	ID        flexibleID `json:"id"`
	Name      string     `json:"name"`
	ItemCount int        `json:"item_count"`
}

// TMDbPaginatedLists is a page of account lists.
type TMDbPaginatedLists struct {
	Page       int        `json:"page"`
	Results    []TMDbList `json:"results"`
	TotalPages int        `json:"total_pages"`
}

// TMDbListItem is an entry of a list. TV entries carry name instead of title.
type TMDbListItem struct {
	ID        flexibleID `json:"id"`
	Title     string     `json:"title"`
	Name      string     `json:"name"`
	MediaType string     `json:"media_type"`
}

// TMDbListDetails is the response of /list/{id}.
type TMDbListDetails struct {
	ID        flexibleID     `json:"id"`
	Name      string         `json:"name"`
	ItemCount int            `json:"item_count"`
	Items     []TMDbListItem `json:"items"`
}

// tmdbStatus is the envelope TMDb uses for errors and write acknowledgements.
type tmdbStatus struct {
	Success       *bool  `json:"success"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// TMDbOpts configures a [TMDbService].
type TMDbOpts struct {
	BaseURL           string
	ApproveURL        string
	APIKey            string
	AccessToken       string // v4 read access token, sent as a bearer token
	SessionID         string
	Language          string
	ListDescription   string
	RequestsPerSecond float64 // zero disables the client-side limiter
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// TMDbService implements [Catalog] for The Movie Database v3 API.
type TMDbService struct {
	baseURL     string
	approveURL  string
	apiKey      string
	sessionID   string
	language    string
	description string
	accountID   string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
}

// NewTMDbService creates a TMDb client. Either opts.APIKey or opts.AccessToken is required.
func NewTMDbService(opts TMDbOpts) (*TMDbService, error) {
	if opts.APIKey == "" && opts.AccessToken == "" {
		return nil, fmt.Errorf("%w: TMDb api_key or access_token is required", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTMDbBaseURL
	}
	if opts.ApproveURL == "" {
		opts.ApproveURL = defaultTMDbApproveURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	client := opts.HTTPClient
	if opts.AccessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.AccessToken,
			TokenType:   "Bearer",
		}))
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &TMDbService{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		approveURL:  strings.TrimRight(opts.ApproveURL, "/"),
		apiKey:      opts.APIKey,
		sessionID:   opts.SessionID,
		language:    opts.Language,
		description: opts.ListDescription,
		httpClient:  client,
		limiter:     limiter,
		logger:      opts.Logger,
	}, nil
}

func (s *TMDbService) Name() string {
	return "TMDb"
}

// SetSession replaces the session id used for account-scoped requests.
func (s *TMDbService) SetSession(sessionID string) {
	s.sessionID = sessionID
	s.accountID = ""
}

// HasSession reports whether a session id is configured.
func (s *TMDbService) HasSession() bool {
	return s.sessionID != ""
}

// doRequest performs a request against the TMDb API and decodes a 2xx JSON body into result.
//
// withSession adds the session_id query parameter and fails early with [shared.ErrNotAuthenticated] when none is set.
func (s *TMDbService) doRequest(ctx context.Context, method, endpoint string, query url.Values, withSession bool, body, result any) error {
	if withSession && s.sessionID == "" {
		return fmt.Errorf("%w: TMDb session_id required (run 'listsync auth')", shared.ErrNotAuthenticated)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}
	if withSession {
		query.Set("session_id", s.sessionID)
	}

	apiURL := s.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		apiURL += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}

	s.logger.Debug("tmdb request", "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError maps a non-2xx TMDb response to a shared error.
func statusError(httpStatus int, body []byte) error {
	var status tmdbStatus
	_ = json.Unmarshal(body, &status)

	msg := status.StatusMessage
	if msg == "" {
		msg = http.StatusText(httpStatus)
	}

	switch {
	case status.StatusCode == tmdbStatusDuplicate:
		return fmt.Errorf("%w: %s", shared.ErrDuplicateItem, msg)
	case httpStatus == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case httpStatus == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, httpStatus, msg)
	}
}

// SearchMovies calls /search/movie and returns the first page of results.
func (s *TMDbService) SearchMovies(ctx context.Context, title string, year *int) (*TMDbSearchResponse, error) {
	query := url.Values{}
	query.Set("query", title)
	query.Set("include_adult", "false")
	if year != nil {
		query.Set("year", strconv.Itoa(*year))
	}
	if s.language != "" {
		query.Set("language", s.language)
	}

	var response TMDbSearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search/movie", query, false, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Search implements [CatalogSearch], preserving TMDb's relevance order.
func (s *TMDbService) Search(ctx context.Context, title string, year *int) ([]models.CatalogMatch, error) {
	response, err := s.SearchMovies(ctx, title, year)
	if err != nil {
		return nil, err
	}

	matches := make([]models.CatalogMatch, 0, len(response.Results))
	for _, m := range response.Results {
		matches = append(matches, models.CatalogMatch{
			ExternalID:   string(m.ID),
			DisplayTitle: m.Title,
			ReleaseDate:  m.ReleaseDate,
		})
	}
	return matches, nil
}

// Account retrieves the account owning the session.
func (s *TMDbService) Account(ctx context.Context) (*TMDbAccount, error) {
	var account TMDbAccount
	if err := s.doRequest(ctx, http.MethodGet, "/account", nil, true, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// accountIDFor returns the cached account id, fetching it on first use.
func (s *TMDbService) accountIDFor(ctx context.Context) (string, error) {
	if s.accountID != "" {
		return s.accountID, nil
	}
	account, err := s.Account(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get account: %w", err)
	}
	s.accountID = string(account.ID)
	return s.accountID, nil
}

// AccountLists retrieves one page of the account's lists.
func (s *TMDbService) AccountLists(ctx context.Context, page int) (*TMDbPaginatedLists, error) {
	accountID, err := s.accountIDFor(ctx)
	if err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	var response TMDbPaginatedLists
	endpoint := fmt.Sprintf("/account/%s/lists", url.PathEscape(accountID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, query, true, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetLists retrieves all lists of the account across pages.
func (s *TMDbService) GetLists(ctx context.Context) ([]ListSummary, error) {
	var lists []ListSummary
	for page := 1; ; page++ {
		response, err := s.AccountLists(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, l := range response.Results {
			lists = append(lists, ListSummary{ID: string(l.ID), Name: l.Name, ItemCount: l.ItemCount})
		}

		if response.TotalPages <= page || len(response.Results) == 0 {
			break
		}
	}
	return lists, nil
}

// FindListByName implements [ListStore]. Names are compared exactly.
func (s *TMDbService) FindListByName(ctx context.Context, name string) (*models.TargetList, error) {
	lists, err := s.GetLists(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.Name == name {
			return &models.TargetList{ID: l.ID, Name: l.Name}, nil
		}
	}
	return nil, nil
}

// CreateList implements [ListStore].
func (s *TMDbService) CreateList(ctx context.Context, name string) (*models.TargetList, error) {
	body := map[string]string{"name": name, "description": s.description}
	if s.language != "" {
		body["language"] = strings.SplitN(s.language, "-", 2)[0]
	}

	var response struct {
		tmdbStatus
		ListID flexibleID `json:"list_id"`
	}
	if err := s.doRequest(ctx, http.MethodPost, "/list", nil, true, body, &response); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	if response.ListID == "" {
		return nil, fmt.Errorf("%w: create list returned no list_id", shared.ErrAPIRequest)
	}

	s.logger.Info("created list", "name", name, "id", response.ListID)
	return &models.TargetList{ID: string(response.ListID), Name: name}, nil
}

// GetList retrieves a list with its items.
func (s *TMDbService) GetList(ctx context.Context, listID string) (*ListDetails, error) {
	if listID == "" {
		return nil, fmt.Errorf("%w: list id is empty", shared.ErrInvalidArgument)
	}

	query := url.Values{}
	if s.language != "" {
		query.Set("language", s.language)
	}

	var response TMDbListDetails
	endpoint := "/list/" + url.PathEscape(listID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, query, false, nil, &response); err != nil {
		return nil, err
	}

	details := &ListDetails{ID: string(response.ID), Name: response.Name}
	for _, it := range response.Items {
		title := it.Title
		if title == "" {
			title = it.Name
		}
		details.Items = append(details.Items, models.ListItem{ID: string(it.ID), Title: title})
	}
	return details, nil
}

// ListItems implements [ListStore].
func (s *TMDbService) ListItems(ctx context.Context, listID string) ([]models.ListItem, error) {
	details, err := s.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return details.Items, nil
}

// AddItem implements [ListStore]. TMDb expects a numeric media id.
func (s *TMDbService) AddItem(ctx context.Context, listID, itemID string) error {
	mediaID, err := strconv.Atoi(itemID)
	if err != nil {
		return fmt.Errorf("%w: media id %q is not numeric", shared.ErrInvalidInput, itemID)
	}

	var response tmdbStatus
	endpoint := fmt.Sprintf("/list/%s/add_item", url.PathEscape(listID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, true, map[string]int{"media_id": mediaID}, &response); err != nil {
		return err
	}
	if response.Success != nil && !*response.Success {
		if response.StatusCode == tmdbStatusDuplicate {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateItem, response.StatusMessage)
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, response.StatusMessage)
	}
	return nil
}

// RequestToken creates a request token for the approval flow.
func (s *TMDbService) RequestToken(ctx context.Context) (string, error) {
	var response struct {
		tmdbStatus
		RequestToken string `json:"request_token"`
		ExpiresAt    string `json:"expires_at"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/authentication/token/new", nil, false, nil, &response); err != nil {
		return "", fmt.Errorf("failed to create request token: %w", err)
	}
	if response.RequestToken == "" {
		return "", fmt.Errorf("%w: empty request token", shared.ErrAuthFailed)
	}
	return response.RequestToken, nil
}

// ApproveURL returns the page where the user approves token; TMDb redirects to redirectTo afterwards.
func (s *TMDbService) ApproveURL(token, redirectTo string) string {
	u := s.approveURL + "/" + url.PathEscape(token)
	if redirectTo != "" {
		u += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return u
}

// CreateSession exchanges an approved request token for a session id and starts using it.
func (s *TMDbService) CreateSession(ctx context.Context, token string) (string, error) {
	var response struct {
		tmdbStatus
		SessionID string `json:"session_id"`
	}
	err := s.doRequest(ctx, http.MethodPost, "/authentication/session/new", nil, false, map[string]string{"request_token": token}, &response)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return "", fmt.Errorf("%w: request token not approved", shared.ErrAuthFailed)
		}
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if response.SessionID == "" {
		return "", fmt.Errorf("%w: empty session id", shared.ErrAuthFailed)
	}

	s.SetSession(response.SessionID)
	return response.SessionID, nil
}
