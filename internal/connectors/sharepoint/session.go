package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure Session implements the interface.
var _ driven.Session = (*Session)(nil)

// pathProperty is the managed property carrying a result's address.
const pathProperty = "Path"

// Session is a REST session bound to one site address.
type Session struct {
	client *Client
	target domain.Target
	api    string

	mu      sync.Mutex
	library *domain.Library
}

// NewSession binds client to target.
func NewSession(client *Client, target domain.Target) *Session {
	return &Session{
		client: client,
		target: target,
		api:    strings.TrimRight(target.String(), "/") + "/_api",
	}
}

// Target returns the address this session is bound to.
func (s *Session) Target() domain.Target {
	return s.target
}

type searchRequest struct {
	Request searchBody `json:"request"`
}

type searchBody struct {
	Querytext        string   `json:"Querytext"`
	StartRow         int      `json:"StartRow"`
	RowLimit         int      `json:"RowLimit"`
	SelectProperties []string `json:"SelectProperties"`
	TrimDuplicates   bool     `json:"TrimDuplicates"`
}

type searchResponse struct {
	PrimaryQueryResult struct {
		RelevantResults struct {
			RowCount  int `json:"RowCount"`
			TotalRows int `json:"TotalRows"`
			Table     struct {
				Rows []struct {
					Cells []struct {
						Key   string `json:"Key"`
						Value string `json:"Value"`
					} `json:"Cells"`
				} `json:"Rows"`
			} `json:"Table"`
		} `json:"RelevantResults"`
	} `json:"PrimaryQueryResult"`
}

// Search runs one page of a keyword query.
func (s *Session) Search(ctx context.Context, query string, pageSize, startRow int) (domain.SearchPage, error) {
	req, err := jsonRequest("search", http.MethodPost, s.api+"/search/postquery", searchRequest{
		Request: searchBody{
			Querytext:        query,
			StartRow:         startRow,
			RowLimit:         pageSize,
			SelectProperties: []string{pathProperty},
		},
	})
	if err != nil {
		return domain.SearchPage{}, err
	}

	var resp searchResponse
	if err := s.client.do(ctx, req, &resp); err != nil {
		return domain.SearchPage{}, err
	}

	results := resp.PrimaryQueryResult.RelevantResults
	page := domain.SearchPage{
		Paths:     make([]string, 0, len(results.Table.Rows)),
		Rows:      len(results.Table.Rows),
		TotalRows: results.TotalRows,
	}
	for _, row := range results.Table.Rows {
		for _, cell := range row.Cells {
			if cell.Key == pathProperty && cell.Value != "" {
				page.Paths = append(page.Paths, cell.Value)
				break
			}
		}
	}
	return page, nil
}

type libraryResponse struct {
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	RootFolder struct {
		ServerRelativeURL string `json:"ServerRelativeUrl"`
	} `json:"RootFolder"`
}

// DefaultLibrary resolves the default document library. The result is cached.
func (s *Session) DefaultLibrary(ctx context.Context) (*domain.Library, error) {
	s.mu.Lock()
	cached := s.library
	s.mu.Unlock()
	if cached != nil {
		lib := *cached
		return &lib, nil
	}

	var resp libraryResponse
	req := request{
		op:     "default_library",
		method: http.MethodGet,
		url:    s.api + "/web/DefaultDocumentLibrary()?$select=Id,Title,RootFolder/ServerRelativeUrl&$expand=RootFolder",
	}
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.RootFolder.ServerRelativeURL == "" {
		return nil, fmt.Errorf("%w: default library has no id or root folder", domain.ErrNotFound)
	}

	lib := domain.Library{
		ID:         resp.ID,
		Title:      resp.Title,
		RootFolder: strings.TrimRight(resp.RootFolder.ServerRelativeURL, "/"),
	}
	s.mu.Lock()
	s.library = &lib
	s.mu.Unlock()
	out := lib
	return &out, nil
}

type ownerResponse struct {
	Author struct {
		LoginName string `json:"LoginName"`
		Title     string `json:"Title"`
		Email     string `json:"Email"`
	} `json:"Author"`
}

// SiteOwner resolves the user who created the site.
func (s *Session) SiteOwner(ctx context.Context) (*domain.Principal, error) {
	var resp ownerResponse
	req := request{
		op:     "site_owner",
		method: http.MethodGet,
		url:    s.api + "/web?$select=Author/LoginName,Author/Title,Author/Email&$expand=Author",
	}
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Author.LoginName == "" {
		return nil, fmt.Errorf("%w: site has no author", domain.ErrNotFound)
	}
	return &domain.Principal{
		LoginName: resp.Author.LoginName,
		Title:     resp.Author.Title,
		Email:     resp.Author.Email,
	}, nil
}

type fileResponse struct {
	Name              string `json:"Name"`
	ServerRelativeURL string `json:"ServerRelativeUrl"`
}

// UploadFile adds content to the library root, overwriting any file of the same name.
func (s *Session) UploadFile(
	ctx context.Context, library *domain.Library, name string, content []byte,
) (*domain.RemoteFile, error) {
	var resp fileResponse
	req := request{
		op:     "upload",
		method: http.MethodPost,
		url: fmt.Sprintf("%s/web/lists(guid'%s')/RootFolder/Files/add(url='%s',overwrite=true)",
			s.api, library.ID, odataLiteral(name)),
		body:        content,
		contentType: "application/octet-stream",
		creates:     true,
	}
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	file := &domain.RemoteFile{Name: resp.Name, ServerRelativeURL: resp.ServerRelativeURL}
	if file.Name == "" {
		file.Name = name
	}
	if file.ServerRelativeURL == "" {
		file.ServerRelativeURL = library.FileURL(name)
	}
	return file, nil
}

type itemsResponse struct {
	Value []struct {
		ID int `json:"Id"`
	} `json:"value"`
}

type validateRequest struct {
	FormValues         []formValue `json:"formValues"`
	BNewDocumentUpdate bool        `json:"bNewDocumentUpdate"`
	DatesInUTC         bool        `json:"datesInUTC"`
}

type formValue struct {
	FieldName  string `json:"FieldName"`
	FieldValue string `json:"FieldValue"`
}

type validateResponse struct {
	Value []struct {
		FieldName    string `json:"FieldName"`
		HasException bool   `json:"HasException"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"value"`
}

// UpdateItemMetadata sets fields on the list item behind the named file
// without creating a new version.
func (s *Session) UpdateItemMetadata(
	ctx context.Context, library *domain.Library, name string, fields []domain.FieldValue,
) ([]domain.FieldUpdateResult, error) {
	itemID, err := s.itemID(ctx, library, name)
	if err != nil {
		return nil, err
	}

	payload := validateRequest{
		FormValues:         make([]formValue, 0, len(fields)),
		BNewDocumentUpdate: true,
		DatesInUTC:         true,
	}
	for _, f := range fields {
		payload.FormValues = append(payload.FormValues, formValue{FieldName: f.Name, FieldValue: f.Value})
	}
	req, err := jsonRequest("update_metadata", http.MethodPost,
		fmt.Sprintf("%s/web/lists(guid'%s')/items(%d)/ValidateUpdateListItem()", s.api, library.ID, itemID),
		payload)
	if err != nil {
		return nil, err
	}

	var resp validateResponse
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.FieldUpdateResult, 0, len(resp.Value))
	for _, v := range resp.Value {
		results = append(results, domain.FieldUpdateResult{
			Name:         v.FieldName,
			HasException: v.HasException,
			ErrorMessage: v.ErrorMessage,
		})
	}
	return results, nil
}

// itemID finds the list item id of a file in the library root.
func (s *Session) itemID(ctx context.Context, library *domain.Library, name string) (int, error) {
	query := url.Values{}
	query.Set("$select", "Id")
	query.Set("$filter", fmt.Sprintf("FileLeafRef eq '%s'", strings.ReplaceAll(name, "'", "''")))
	query.Set("$top", "1")

	var resp itemsResponse
	req := request{
		op:     "find_item",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/web/lists(guid'%s')/items?%s", s.api, library.ID, query.Encode()),
	}
	if err := s.client.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	if len(resp.Value) == 0 {
		return 0, fmt.Errorf("%w: list item for %s", domain.ErrNotFound, name)
	}
	return resp.Value[0].ID, nil
}

type createDocumentRequest struct {
	FolderPath string `json:"folderPath"`
	Extension  string `json:"extension"`
}

type stringValue struct {
	Value string `json:"value"`
}

// CreateProbeFile creates an empty document with a default name in the
// root of the default library.
func (s *Session) CreateProbeFile(ctx context.Context) (*domain.RemoteFile, error) {
	library, err := s.DefaultLibrary(ctx)
	if err != nil {
		return nil, err
	}

	req, err := jsonRequest("create_probe", http.MethodPost,
		s.api+"/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName",
		createDocumentRequest{FolderPath: "", Extension: "docx"})
	if err != nil {
		return nil, err
	}
	req.creates = true
	var resp stringValue
	if err := s.client.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Value == "" {
		return nil, fmt.Errorf("%w: empty document name from create", domain.ErrTransport)
	}

	// Some farms return the server-relative URL rather than the leaf name.
	if strings.HasPrefix(resp.Value, "/") {
		return &domain.RemoteFile{Name: path.Base(resp.Value), ServerRelativeURL: resp.Value}, nil
	}
	return &domain.RemoteFile{Name: resp.Value, ServerRelativeURL: library.FileURL(resp.Value)}, nil
}

// DeleteFile removes the file at serverRelativeURL.
func (s *Session) DeleteFile(ctx context.Context, serverRelativeURL string) error {
	req := request{
		op:     "delete",
		method: http.MethodPost,
		url:    s.fileURL(serverRelativeURL),
		headers: map[string]string{
			"X-HTTP-Method": "DELETE",
			"IF-MATCH":      "*",
		},
	}
	return s.client.do(ctx, req, nil)
}

type existsResponse struct {
	Exists bool `json:"Exists"`
}

// FileExists reports whether a file is present. A missing file is not an error.
func (s *Session) FileExists(ctx context.Context, serverRelativeURL string) (bool, error) {
	var resp existsResponse
	req := request{
		op:     "file_exists",
		method: http.MethodGet,
		url:    s.fileURL(serverRelativeURL) + "?$select=Exists",
	}
	err := s.client.do(ctx, req, &resp)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (s *Session) fileURL(serverRelativeURL string) string {
	return fmt.Sprintf("%s/web/GetFileByServerRelativePath(decodedurl='%s')", s.api, odataLiteral(serverRelativeURL))
}

// odataLiteral escapes s for use inside a quoted OData string in a URL path.
func odataLiteral(s string) string {
	escaped := url.PathEscape(strings.ReplaceAll(s, "'", "''"))
	// Keep path separators of server-relative URLs literal.
	return strings.ReplaceAll(escaped, "%2F", "/")
}
