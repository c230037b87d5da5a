package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gridpm/internal/config"
	"gridpm/internal/dashboard"
	"gridpm/internal/domain"
	"gridpm/internal/engine"
	"gridpm/internal/entropy"
	"gridpm/internal/view"
)

const Version = "0.3.0"

// Config for the HTTP API handler.
type Config struct {
	Profile     *config.Profile
	BasePath    string
	Now         func() time.Time
	LogRequests bool
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"days must be between 1 and 365"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope every endpoint returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type handler struct {
	profile *config.Profile
	now     func() time.Time
}

// New returns an HTTP handler exposing the gridpm API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("%w: server needs a profile", config.ErrInvalidConfig)
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	h := handler{profile: cfg.Profile, now: cfg.Now}
	if h.now == nil {
		h.now = time.Now
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.LogRequests {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	hcfg := huma.DefaultConfig("gridpm API", Version)
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerProfile(group, h)
	registerAssets(group, h)
	registerDashboard(group, h)
	registerCalculators(group)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, dashboard.ErrInvalidInput), errors.Is(err, config.ErrInvalidConfig):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// seedOf maps the seed query parameter onto the engine's optional seed.
func seedOf(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

func (h handler) batch(count int, seed uint64) (domain.Batch, error) {
	eng, err := engine.NewSeeded(h.profile, seedOf(seed))
	if err != nil {
		return domain.Batch{}, err
	}
	eng.Now = h.now
	if count == 0 {
		count = h.profile.BatchSize
	}
	return eng.Batch(count), nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var (
		once sync.Once
		doc  []byte
	)
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			doc, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil || oas.Components == nil || oas.Components.Schemas == nil {
		return
	}
	errSchema := oas.Components.Schemas.Schema(reflect.TypeOf(apiError{}), true, "ApiError")
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {Schema: errSchema},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>gridpm API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      All figures are synthetic. Pass seed to make a response reproducible.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok", "version": Version}}, nil
	})
}

func registerProfile(api huma.API, h handler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Active generator profile",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body *config.Profile `json:"body"`
	}, error) {
		return &struct {
			Body *config.Profile `json:"body"`
		}{Body: h.profile}, nil
	})
}

func registerAssets(api huma.API, h handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/assets",
		Summary:     "Generate a batch and filter it",
		Description: "Every call draws a fresh batch; filters are applied in risk, type, location order before limit.",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *assetQuery) (*struct {
		Body AssetListResponse `json:"body"`
	}, error) {
		b, err := h.batch(input.Count, input.Seed)
		if err != nil {
			return nil, handleError(err)
		}
		q := view.Query{
			Risk:     domain.RiskLevel(input.Risk),
			Type:     input.Type,
			Location: input.Location,
			Limit:    input.Limit,
		}
		return &struct {
			Body AssetListResponse `json:"body"`
		}{Body: toAssetList(b, q.Apply(b.Assets))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "summarize-assets",
		Method:      http.MethodGet,
		Path:        "/assets/summary",
		Summary:     "Generate a batch and summarize it",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *batchQuery) (*struct {
		Body SummaryResponse `json:"body"`
	}, error) {
		b, err := h.batch(input.Count, input.Seed)
		if err != nil {
			return nil, handleError(err)
		}
		s, err := view.Summarize(b.Assets)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SummaryResponse `json:"body"`
		}{Body: SummaryResponse{BatchID: b.ID, Profile: b.Profile, Summary: s}}, nil
	})
}

func registerDashboard(api huma.API, h handler) {
	huma.Register(api, huma.Operation{
		OperationID: "risk-trend",
		Method:      http.MethodGet,
		Path:        "/trends",
		Summary:     "Daily high-risk count and model accuracy",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *trendQuery) (*struct {
		Body TrendResponse `json:"body"`
	}, error) {
		points, err := dashboard.Trend(entropy.For(seedOf(input.Seed)), h.now(), input.Days)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TrendResponse `json:"body"`
		}{Body: TrendResponse{Days: input.Days, Points: points}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "system-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Live system status",
	}, func(ctx context.Context, input *seedQuery) (*struct {
		Body domain.SystemStatus `json:"body"`
	}, error) {
		return &struct {
			Body domain.SystemStatus `json:"body"`
		}{Body: dashboard.LiveStatus(entropy.For(seedOf(input.Seed)), h.now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pipeline-performance",
		Method:      http.MethodGet,
		Path:        "/pipeline",
		Summary:     "Live prediction pipeline performance",
	}, func(ctx context.Context, input *seedQuery) (*struct {
		Body domain.PipelinePerformance `json:"body"`
	}, error) {
		return &struct {
			Body domain.PipelinePerformance `json:"body"`
		}{Body: dashboard.PipelinePerformance(entropy.For(seedOf(input.Seed)))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "business-impact",
		Method:      http.MethodGet,
		Path:        "/impact",
		Summary:     "Business impact cards and breakdowns",
	}, func(ctx context.Context, input *seedQuery) (*struct {
		Body domain.BusinessImpact `json:"body"`
	}, error) {
		return &struct {
			Body domain.BusinessImpact `json:"body"`
		}{Body: dashboard.Impact(entropy.For(seedOf(input.Seed)))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-crews",
		Method:      http.MethodGet,
		Path:        "/crews",
		Summary:     "Field crew roster",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body CrewsResponse `json:"body"`
	}, error) {
		return &struct {
			Body CrewsResponse `json:"body"`
		}{Body: CrewsResponse{Crews: dashboard.Crews()}}, nil
	})
}

func registerCalculators(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "estimate-ensemble",
		Method:      http.MethodPost,
		Path:        "/ensemble/estimate",
		Summary:     "Blend model benchmark scores by weight",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.EnsembleWeights `json:"body"`
	}) (*struct {
		Body domain.EnsembleEstimate `json:"body"`
	}, error) {
		est, err := dashboard.EstimateEnsemble(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EnsembleEstimate `json:"body"`
		}{Body: est}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-roi",
		Method:      http.MethodPost,
		Path:        "/roi",
		Summary:     "Project cumulative savings against implementation cost",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.ROIInput `json:"body"`
	}) (*struct {
		Body domain.ROIProjection `json:"body"`
	}, error) {
		proj, err := dashboard.ProjectROI(input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ROIProjection `json:"body"`
		}{Body: proj}, nil
	})
}
