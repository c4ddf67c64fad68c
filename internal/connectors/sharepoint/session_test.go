package sharepoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

const (
	sitePath    = "/sites/fin"
	libraryJSON = `{"Id":"lib-1","Title":"Documents","RootFolder":{"ServerRelativeUrl":"/sites/fin/Shared Documents"}}`
)

// routes dispatches on "METHOD /decoded/path".
type routes map[string]http.HandlerFunc

func newTestSession(t *testing.T, r routes) *Session {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler, ok := r[req.Method+" "+req.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), nil, 0)
	client.retryDelay = time.Millisecond
	return NewSession(client, domain.Target(srv.URL+sitePath+"/"))
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestSession_Search(t *testing.T) {
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/search/postquery": func(w http.ResponseWriter, r *http.Request) {
			var body searchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "contentclass:STS_Site", body.Request.Querytext)
			assert.Equal(t, 500, body.Request.StartRow)
			assert.Equal(t, 500, body.Request.RowLimit)
			assert.Equal(t, []string{"Path"}, body.Request.SelectProperties)
			assert.False(t, body.Request.TrimDuplicates)

			_, _ = w.Write([]byte(`{"PrimaryQueryResult":{"RelevantResults":{"RowCount":2,"TotalRows":1200,
				"Table":{"Rows":[
					{"Cells":[{"Key":"Rank","Value":"1"},{"Key":"Path","Value":"https://t/sites/a"}]},
					{"Cells":[{"Key":"Path","Value":"https://t/sites/b"}]},
					{"Cells":[{"Key":"Title","Value":"no path"}]}
				]}}}}`))
		},
	})

	page, err := s.Search(context.Background(), "contentclass:STS_Site", 500, 500)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://t/sites/a", "https://t/sites/b"}, page.Paths)
	assert.Equal(t, 3, page.RowCount())
	assert.Equal(t, 1200, page.TotalRows)
}

func TestSession_Search_RowsWithoutPathStillCount(t *testing.T) {
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/search/postquery": writeJSON(`{"PrimaryQueryResult":{"RelevantResults":{
			"Table":{"Rows":[{"Cells":[{"Key":"Path","Value":""}]},{"Cells":[]}]}}}}`),
	})

	page, err := s.Search(context.Background(), "x", 10, 0)

	require.NoError(t, err)
	assert.Empty(t, page.Paths)
	assert.Equal(t, 2, page.RowCount())
}

func TestSession_Search_EmptyPage(t *testing.T) {
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/search/postquery": writeJSON(`{"PrimaryQueryResult":{"RelevantResults":{"RowCount":0}}}`),
	})

	page, err := s.Search(context.Background(), "x", 10, 0)

	require.NoError(t, err)
	assert.Zero(t, page.RowCount())
}

func TestSession_Target(t *testing.T) {
	s := NewSession(NewClient(http.DefaultClient, nil, 0), "https://t/sites/a/")
	assert.Equal(t, domain.Target("https://t/sites/a/"), s.Target())
	assert.Equal(t, "https://t/sites/a/_api", s.api)
}

func TestSession_DefaultLibrary_Cached(t *testing.T) {
	var calls atomic.Int32
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "RootFolder", r.URL.Query().Get("$expand"))
			_, _ = w.Write([]byte(libraryJSON))
		},
	})

	lib, err := s.DefaultLibrary(context.Background())
	require.NoError(t, err)
	again, err := s.DefaultLibrary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &domain.Library{ID: "lib-1", Title: "Documents", RootFolder: "/sites/fin/Shared Documents"}, lib)
	assert.Equal(t, lib, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSession_DefaultLibrary_Denied(t *testing.T) {
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})

	_, err := s.DefaultLibrary(context.Background())

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestSession_SiteOwner(t *testing.T) {
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web": writeJSON(
			`{"Author":{"LoginName":"i:0#.f|membership|alice@contoso.com","Title":"Alice","Email":"alice@contoso.com"}}`),
	})

	owner, err := s.SiteOwner(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "i:0#.f|membership|alice@contoso.com", owner.LoginName)
	assert.Equal(t, "Alice", owner.Title)
}

func TestSession_SiteOwner_Missing(t *testing.T) {
	s := newTestSession(t, routes{"GET /sites/fin/_api/web": writeJSON(`{}`)})

	_, err := s.SiteOwner(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_UploadFile(t *testing.T) {
	lib := &domain.Library{ID: "lib-1", RootFolder: "/sites/fin/Shared Documents"}
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/web/lists(guid'lib-1')/RootFolder/Files/add(url='Q3 Budget.xlsx',overwrite=true)": func(
			w http.ResponseWriter, r *http.Request,
		) {
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"Name":"Q3 Budget.xlsx","ServerRelativeUrl":"/sites/fin/Shared Documents/Q3 Budget.xlsx"}`))
		},
	})

	file, err := s.UploadFile(context.Background(), lib, "Q3 Budget.xlsx", []byte("data"))

	require.NoError(t, err)
	assert.Equal(t, "/sites/fin/Shared Documents/Q3 Budget.xlsx", file.ServerRelativeURL)
}

func TestSession_UpdateItemMetadata(t *testing.T) {
	lib := &domain.Library{ID: "lib-1", RootFolder: "/sites/fin/Shared Documents"}
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/lists(guid'lib-1')/items": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "FileLeafRef eq 'o''brien.docx'", r.URL.Query().Get("$filter"))
			_, _ = w.Write([]byte(`{"value":[{"Id":7}]}`))
		},
		"POST /sites/fin/_api/web/lists(guid'lib-1')/items(7)/ValidateUpdateListItem()": func(
			w http.ResponseWriter, r *http.Request,
		) {
			var body validateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body.BNewDocumentUpdate)
			assert.True(t, body.DatesInUTC)
			assert.Equal(t, []formValue{
				{FieldName: "Created", FieldValue: "2023-01-02T03:04:05Z"},
				{FieldName: "Author", FieldValue: `[{"Key":"alice"}]`},
			}, body.FormValues)
			_, _ = w.Write([]byte(`{"value":[
				{"FieldName":"Created","HasException":true,"ErrorMessage":"Access denied"},
				{"FieldName":"Author","HasException":false}
			]}`))
		},
	})

	results, err := s.UpdateItemMetadata(context.Background(), lib, "o'brien.docx", []domain.FieldValue{
		{Name: domain.FieldCreated, Value: "2023-01-02T03:04:05Z"},
		{Name: domain.FieldAuthor, Value: domain.FieldUser("alice")},
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.FieldUpdateResult{
		{Name: "Created", HasException: true, ErrorMessage: "Access denied"},
		{Name: "Author"},
	}, results)
}

func TestSession_UpdateItemMetadata_ItemMissing(t *testing.T) {
	lib := &domain.Library{ID: "lib-1"}
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/lists(guid'lib-1')/items": writeJSON(`{"value":[]}`),
	})

	_, err := s.UpdateItemMetadata(context.Background(), lib, "a.docx", nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_CreateProbeFile(t *testing.T) {
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": writeJSON(libraryJSON),
		"POST /sites/fin/_api/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName": func(
			w http.ResponseWriter, r *http.Request,
		) {
			var body createDocumentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "docx", body.Extension)
			_, _ = w.Write([]byte(`{"value":"Document.docx"}`))
		},
	})

	file, err := s.CreateProbeFile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &domain.RemoteFile{
		Name:              "Document.docx",
		ServerRelativeURL: "/sites/fin/Shared Documents/Document.docx",
	}, file)
}

func TestSession_CreateProbeFile_ServerRelativeValue(t *testing.T) {
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": writeJSON(libraryJSON),
		"POST /sites/fin/_api/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName": writeJSON(
			`{"value":"/sites/fin/Shared Documents/Document1.docx"}`),
	})

	file, err := s.CreateProbeFile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Document1.docx", file.Name)
	assert.Equal(t, "/sites/fin/Shared Documents/Document1.docx", file.ServerRelativeURL)
}

func TestSession_CreateProbeFile_Denied(t *testing.T) {
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": writeJSON(libraryJSON),
		"POST /sites/fin/_api/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName": func(
			w http.ResponseWriter, _ *http.Request,
		) {
			w.WriteHeader(http.StatusForbidden)
		},
	})

	_, err := s.CreateProbeFile(context.Background())

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestSession_CreateProbeFile_ServerErrorNotRepeated(t *testing.T) {
	var creates atomic.Int32
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": writeJSON(libraryJSON),
		"POST /sites/fin/_api/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName": func(
			w http.ResponseWriter, _ *http.Request,
		) {
			if creates.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"value":"Document2.docx"}`))
		},
	})
	s.client.maxRetries = 3

	_, err := s.CreateProbeFile(context.Background())

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(1), creates.Load())
}

func TestSession_CreateProbeFile_ThrottledIsRetried(t *testing.T) {
	var creates atomic.Int32
	s := newTestSession(t, routes{
		"GET /sites/fin/_api/web/DefaultDocumentLibrary()": writeJSON(libraryJSON),
		"POST /sites/fin/_api/web/DefaultDocumentLibrary()/CreateDocumentWithDefaultName": func(
			w http.ResponseWriter, _ *http.Request,
		) {
			if creates.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"value":"Document.docx"}`))
		},
	})
	s.client.maxRetries = 3

	file, err := s.CreateProbeFile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Document.docx", file.Name)
	assert.Equal(t, int32(2), creates.Load())
}

func TestSession_UploadFile_ServerErrorNotRepeated(t *testing.T) {
	var uploads atomic.Int32
	lib := &domain.Library{ID: "lib-1", RootFolder: "/sites/fin/Shared Documents"}
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/web/lists(guid'lib-1')/RootFolder/Files/add(url='keys.pem',overwrite=true)": func(
			w http.ResponseWriter, _ *http.Request,
		) {
			uploads.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	s.client.maxRetries = 3

	_, err := s.UploadFile(context.Background(), lib, "keys.pem", []byte("data"))

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(1), uploads.Load())
}

func TestSession_DeleteFile(t *testing.T) {
	var deleted atomic.Bool
	s := newTestSession(t, routes{
		"POST /sites/fin/_api/web/GetFileByServerRelativePath(decodedurl='/sites/fin/Shared Documents/Document.docx')": func(
			w http.ResponseWriter, r *http.Request,
		) {
			assert.Equal(t, "DELETE", r.Header.Get("X-HTTP-Method"))
			assert.Equal(t, "*", r.Header.Get("IF-MATCH"))
			deleted.Store(true)
		},
	})

	err := s.DeleteFile(context.Background(), "/sites/fin/Shared Documents/Document.docx")

	require.NoError(t, err)
	assert.True(t, deleted.Load())
}

func TestSession_FileExists(t *testing.T) {
	const path = "GET /sites/fin/_api/web/GetFileByServerRelativePath(decodedurl='/sites/fin/Shared Documents/a.docx')"

	t.Run("present", func(t *testing.T) {
		s := newTestSession(t, routes{path: writeJSON(`{"Exists":true}`)})
		exists, err := s.FileExists(context.Background(), "/sites/fin/Shared Documents/a.docx")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("not found is absent", func(t *testing.T) {
		s := newTestSession(t, routes{path: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}})
		exists, err := s.FileExists(context.Background(), "/sites/fin/Shared Documents/a.docx")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("server error", func(t *testing.T) {
		s := newTestSession(t, routes{path: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}})
		_, err := s.FileExists(context.Background(), "/sites/fin/Shared Documents/a.docx")
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestODataLiteral(t *testing.T) {
	assert.Equal(t, "/sites/a/Shared%20Documents/o%27%27brien.docx", odataLiteral("/sites/a/Shared Documents/o'brien.docx"))
}
