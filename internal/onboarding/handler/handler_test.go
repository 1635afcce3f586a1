package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/service"
	"onboarding/internal/onboarding/store/draft"
	authmw "onboarding/pkg/platform/middleware/auth"
	"onboarding/pkg/testutil"
)

var ada = &authmw.SessionClaims{
	SessionID:  "sess-1",
	Subject:    "li-123",
	GivenName:  "Ada",
	FamilyName: "Lovelace",
	Email:      "ada@example.com",
	Picture:    "https://cdn.example.com/ada.png",
}

type stateResponse struct {
	Status   string                  `json:"status"`
	Avatar   AvatarView              `json:"avatar"`
	Draft    json.RawMessage         `json:"draft"`
	Sections map[string]SectionState `json:"sections"`
	Errors   map[string]string       `json:"errors"`

	Validation *ValidationView `json:"validation"`
}

type draftResponse struct {
	Name struct {
		Value   string `json:"value"`
		Touched bool   `json:"touched"`
	} `json:"name"`
	Email struct {
		Value string `json:"value"`
	} `json:"email"`
	Experience []map[string]any `json:"experience"`
	Skills     []string         `json:"skills"`
	Panels     map[string]bool  `json:"panels"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(draft.NewInMemory(time.Hour, form.Options{}),
		service.WithLogger(logger),
		service.WithResolveTimeout(20*time.Millisecond),
	)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims, ok := req.Context().Value(claimsKey{}).(*authmw.SessionClaims); ok {
				req = req.WithContext(authmw.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession("/", logger))
		New(svc, logger).Register(r)
	})
	return r
}

type claimsKey struct{}

func signedIn(req *http.Request) *http.Request {
	return testutil.WithContextValue(req, claimsKey{}, ada)
}

func getState(t *testing.T, router http.Handler) *stateResponse {
	t.Helper()
	req := signedIn(testutil.NewRequest(t, http.MethodGet, "/onboarding/state"))
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	return testutil.UnmarshalResponse[stateResponse](t, rr)
}

func draftOf(t *testing.T, state *stateResponse) draftResponse {
	t.Helper()
	var d draftResponse
	require.NoError(t, json.Unmarshal(state.Draft, &d))
	return d
}

func TestOnboardingPage(t *testing.T) {
	testutil.Given(t, "a visitor without a session", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "they open the onboarding page", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/onboarding"))

			testutil.Then(t, "they are sent to the landing page", func(t *testing.T) {
				testutil.AssertRedirect(t, rr, "/")
			})
		})
	})

	testutil.Given(t, "a signed-in user", func(t *testing.T) {
		router := newRouter(t)

		testutil.When(t, "they open the onboarding page", func(t *testing.T) {
			rr := testutil.DoRequest(router, signedIn(testutil.NewRequest(t, http.MethodGet, "/onboarding")))

			testutil.Then(t, "the form is rendered prefilled from their profile", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
				body := rr.Body.String()
				assert.Contains(t, body, `value="Ada Lovelace"`)
				assert.Contains(t, body, `value="ada@example.com"`)
				assert.Contains(t, body, `src="https://cdn.example.com/ada.png"`)
				assert.Contains(t, body, "Launchpad")
			})
		})
	})
}

func TestStateEndpoint(t *testing.T) {
	router := newRouter(t)

	state := getState(t, router)

	assert.Equal(t, string(form.StatusReady), state.Status)
	assert.False(t, state.Avatar.Loading)
	assert.Equal(t, "A", state.Avatar.Initial)
	assert.Equal(t, "Ada", state.Avatar.Alt)
	require.Contains(t, state.Sections, "experience")
	assert.Equal(t, SectionState{Count: 1}, state.Sections["experience"])
	assert.Empty(t, state.Errors)

	d := draftOf(t, state)
	assert.Equal(t, "Ada Lovelace", d.Name.Value)
	assert.False(t, d.Name.Touched)
}

func TestProfileEdits(t *testing.T) {
	testutil.Given(t, "a ready form", func(t *testing.T) {
		router := newRouter(t)
		getState(t, router)

		testutil.When(t, "an invalid name is posted by a JSON client", func(t *testing.T) {
			req := signedIn(testutil.NewJSONFormRequest(t, "/onboarding/profile", url.Values{
				"field": {"name"},
				"value": {"Ada 2"},
			}))
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the value is kept and the inline error is reported", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				state := testutil.UnmarshalResponse[stateResponse](t, rr)
				require.NotNil(t, state.Validation)
				assert.False(t, state.Validation.Valid)
				assert.Equal(t, "Name should only contain letters and spaces", state.Validation.Message)
				assert.Equal(t, "Name should only contain letters and spaces", state.Errors["name"])
				assert.Equal(t, "Ada 2", draftOf(t, state).Name.Value)
			})
		})

		testutil.When(t, "a browser posts a valid email", func(t *testing.T) {
			req := signedIn(testutil.NewFormRequest(t, "/onboarding/profile", url.Values{
				"field": {"email"},
				"value": {"ada@lovelace.dev"},
			}))
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is redirected back to the page", func(t *testing.T) {
				testutil.AssertRedirect(t, rr, PagePath)
				assert.Equal(t, "ada@lovelace.dev", draftOf(t, getState(t, router)).Email.Value)
			})
		})

		testutil.When(t, "an unknown field is posted", func(t *testing.T) {
			req := signedIn(testutil.NewJSONFormRequest(t, "/onboarding/profile", url.Values{
				"field": {"age"},
				"value": {"42"},
			}))
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
			})
		})
	})
}

func TestRecordRoutes(t *testing.T) {
	testutil.Given(t, "a ready form with one blank experience", func(t *testing.T) {
		router := newRouter(t)
		getState(t, router)

		testutil.When(t, "add is posted before the record is complete", func(t *testing.T) {
			req := signedIn(testutil.NewFormRequest(t, "/onboarding/experience/add", nil))
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "nothing is appended", func(t *testing.T) {
				testutil.AssertRedirect(t, rr, PagePath+"#experience")
				assert.Equal(t, 1, getState(t, router).Sections["experience"].Count)
			})
		})

		testutil.When(t, "the whole record is saved from the browser form", func(t *testing.T) {
			req := signedIn(testutil.NewFormRequest(t, "/onboarding/experience/0", url.Values{
				"company":          {"Acme"},
				"position":         {"Engineer"},
				"startDate":        {"2020-01-01"},
				"currentlyWorking": {"", "on"},
				"description":      {"Built things"},
			}))
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "every field is stored and another record may be added", func(t *testing.T) {
				testutil.AssertRedirect(t, rr, PagePath+"#experience")
				state := getState(t, router)
				rec := draftOf(t, state).Experience[0]
				assert.Equal(t, "Acme", rec["company"])
				assert.Equal(t, true, rec["currentlyWorking"])
				assert.True(t, state.Sections["experience"].CanAdd)
			})
		})

		testutil.When(t, "a record is added and then deleted", func(t *testing.T) {
			addReq := signedIn(testutil.NewJSONFormRequest(t, "/onboarding/experience/add", nil))
			rr := testutil.DoRequest(router, addReq)
			testutil.AssertStatus(t, rr, http.StatusOK)
			added := testutil.UnmarshalResponse[stateResponse](t, rr)

			delReq := signedIn(testutil.NewJSONFormRequest(t, "/onboarding/experience/delete", nil))
			rr = testutil.DoRequest(router, delReq)
			testutil.AssertStatus(t, rr, http.StatusOK)
			deleted := testutil.UnmarshalResponse[stateResponse](t, rr)

			testutil.Then(t, "the count goes up then back down", func(t *testing.T) {
				assert.Equal(t, 2, added.Sections["experience"].Count)
				assert.Equal(t, 1, deleted.Sections["experience"].Count)
				assert.False(t, deleted.Sections["experience"].CanDelete)
			})
		})
	})

	testutil.Given(t, "malformed record requests", func(t *testing.T) {
		router := newRouter(t)
		getState(t, router)

		tests := []struct {
			name string
			path string
			body url.Values
		}{
			{"unknown section", "/onboarding/hobbies/add", nil},
			{"non-numeric index", "/onboarding/experience/first", url.Values{"field": {"company"}, "value": {"Acme"}}},
			{"unknown field", "/onboarding/education/0", url.Values{"field": {"gpa"}, "value": {"4"}}},
			{"no fields", "/onboarding/projects/0", url.Values{"unrelated": {"x"}}},
		}
		for _, tt := range tests {
			testutil.Then(t, tt.name+" is a bad request", func(t *testing.T) {
				req := signedIn(testutil.NewJSONFormRequest(t, tt.path, tt.body))
				rr := testutil.DoRequest(router, req)
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
			})
		}
	})
}

func TestSkillsAndPanels(t *testing.T) {
	router := newRouter(t)
	getState(t, router)

	rr := testutil.DoRequest(router, signedIn(testutil.NewJSONFormRequest(t, "/onboarding/skills", url.Values{
		"action": {"add"},
		"name":   {"Go, Rust, ,Go"},
	})))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, []string{"Go", "Rust"}, draftOf(t, testutil.UnmarshalResponse[stateResponse](t, rr)).Skills)

	rr = testutil.DoRequest(router, signedIn(testutil.NewFormRequest(t, "/onboarding/skills", url.Values{
		"action": {"remove"},
		"name":   {"Go"},
	})))
	testutil.AssertRedirect(t, rr, PagePath+"#skills")
	assert.Equal(t, []string{"Rust"}, draftOf(t, getState(t, router)).Skills)

	rr = testutil.DoRequest(router, signedIn(testutil.NewJSONFormRequest(t, "/onboarding/skills", url.Values{
		"action": {"rename"},
	})))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(router, signedIn(testutil.NewJSONFormRequest(t, "/onboarding/panels/education/toggle", nil)))
	testutil.AssertStatus(t, rr, http.StatusOK)
	state := testutil.UnmarshalResponse[stateResponse](t, rr)
	assert.True(t, state.Sections["education"].Expanded)
	assert.False(t, state.Sections["experience"].Expanded)

	rr = testutil.DoRequest(router, signedIn(testutil.NewJSONFormRequest(t, "/onboarding/panels/hobbies/toggle", nil)))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestUnauthenticatedJSONClients(t *testing.T) {
	router := newRouter(t)

	req := testutil.NewJSONFormRequest(t, "/onboarding/skills", url.Values{"name": {"Go"}})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}
