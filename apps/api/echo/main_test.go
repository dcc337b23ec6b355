package echoapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/teampoints/apps/api/echo"
	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
	emailsvc "github.com/trezcool/teampoints/services/email"
	logsvc "github.com/trezcool/teampoints/services/logger"
	inmemdb "github.com/trezcool/teampoints/storage/database/inmem"
	testutil "github.com/trezcool/teampoints/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server  *Server
	conf    *core.Config
	repo    roster.Repository
	store   points.Store
	mailSvc *emailsvc.ConsoleServiceMock
	team    testutil.Team
}

func setup(t *testing.T, teamSize int) *testApp {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db := inmemdb.Open()
	repo := inmemdb.NewRosterRepository(db)
	store := inmemdb.NewPointsStore(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	pointsSvc := points.NewService(store, roster.NewService(repo), mailSvc)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		PointsSvc:      pointsSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testApp{
		server:  server,
		conf:    conf,
		repo:    repo,
		store:   store,
		mailSvc: mailSvc,
		team:    testutil.CreateTeam(t, repo, "CS101", teamSize),
	}
}

func (app *testApp) basePath(team testutil.Team) string {
	return fmt.Sprintf("/v1/course/%s/project/%s/points", team.Course.Number, team.Project.ID)
}

func (app *testApp) token(t *testing.T, caller core.Caller) string {
	token, err := GenerateToken(caller, app.conf)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	return token
}

func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchall(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
