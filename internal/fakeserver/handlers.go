package fakeserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	v1 "github.com/kuberos/kuberos-cli/pkg/apis/v1"
	"github.com/kuberos/kuberos-cli/pkg/manifest"
)

const maxUploadSize = 10 << 20

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeJSON serialises data as JSON and writes it to the response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeDetail writes a DRF-style {"detail": msg} error body.
func (s *Server) writeDetail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}

// replyStatus writes a {status, msg, data} envelope.
func (s *Server) replyStatus(w http.ResponseWriter, code int, ok bool, msg string, data interface{}) {
	body := map[string]interface{}{"status": "success", "msg": msg}
	if !ok {
		body["status"] = "failed"
	}
	if data != nil {
		body["data"] = data
	}
	s.writeJSON(w, code, body)
}

// replySuccess writes a {success, msg, data} envelope.
func (s *Server) replySuccess(w http.ResponseWriter, code int, ok bool, msg string, data interface{}) {
	body := map[string]interface{}{"success": ok, "msg": msg}
	if data != nil {
		body["data"] = data
	}
	s.writeJSON(w, code, body)
}

// record logs every request and applies injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Form:          map[string]string{},
			Files:         map[string][]byte{},
		}
		switch {
		case strings.HasPrefix(rec.ContentType, "multipart/form-data"):
			if err := r.ParseMultipartForm(maxUploadSize); err == nil {
				for k, v := range r.MultipartForm.Value {
					rec.Form[k] = v[0]
				}
				for k := range r.MultipartForm.File {
					if data, err := readFormFile(r, k); err == nil {
						rec.Files[k] = data
					}
				}
			}
		case strings.HasPrefix(rec.ContentType, "application/x-www-form-urlencoded"):
			if err := r.ParseForm(); err == nil {
				for k := range r.PostForm {
					rec.Form[k] = r.PostForm.Get(k)
				}
			}
		}
		delete(rec.Form, "password")

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		status, failing := s.failures[r.URL.Path]
		s.mu.Unlock()

		s.logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		if failing {
			s.writeJSON(w, status, map[string]string{"msg": "injected failure", "detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authed rejects requests without a live "Token" session.
func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessionUser(r); !ok {
			s.writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		h(w, r)
	}
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Token ")
	if !found || token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[token]
	return user, ok
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// uploadedManifest reads and parses the manifest in a multipart field.
func uploadedManifest(r *http.Request, field string) (string, error) {
	data, err := readFormFile(r, field)
	if err != nil {
		return "", fmt.Errorf("missing file field %q", field)
	}
	docs, err := manifest.ParseBytes(data)
	if err != nil {
		return "", err
	}
	return docs[0].Metadata.Name, nil
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds v1.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			s.writeDetail(w, http.StatusBadRequest, "JSON parse error")
			return
		}
	} else {
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[creds.Username]; !ok || creds.Password == "" || pw != creds.Password {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Unable to log in with provided credentials."},
		})
		return
	}
	s.writeJSON(w, http.StatusOK, v1.LoginResponse{Token: s.issueTokenLocked(creds.Username)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")

	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if !ok {
		s.writeDetail(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Clusters
// ---------------------------------------------------------------------------

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]v1.Cluster, 0, len(s.clusters))
	for _, k := range sortedKeys(s.clusters) {
		out = append(out, *s.clusters[k])
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	c, ok := s.clusters[name]
	var out v1.Cluster
	if ok {
		out = *c
	}
	s.mu.Unlock()
	if !ok {
		s.writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegisterCluster(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	host := r.FormValue("host_url")
	if name == "" || host == "" || r.FormValue("service_token_admin") == "" {
		s.replyStatus(w, http.StatusBadRequest, false, "name, host_url and service_token_admin are required", nil)
		return
	}
	if _, err := readFormFile(r, "ca_crt_file"); err != nil {
		s.replyStatus(w, http.StatusBadRequest, false, "ca_crt_file is required", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clusters[name]; exists {
		s.replyStatus(w, http.StatusConflict, false, fmt.Sprintf("Cluster %s already exists", name), nil)
		return
	}
	s.clusters[name] = &v1.Cluster{
		UUID:        uuid.NewString(),
		ClusterName: name,
		HostURL:     host,
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
	}
	s.replyStatus(w, http.StatusCreated, true, fmt.Sprintf("Cluster %s registered", name), nil)
}

func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	name, err := uploadedManifest(r, "inventory_description")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"res": "failed", "msg": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"res": "success", "msg": fmt.Sprintf("Inventory %s applied", name)})
}

func (s *Server) handleResetCluster(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[name]
	if !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Cluster %s not found", name), nil)
		return
	}
	for i := range c.ClusterNodeSet {
		c.ClusterNodeSet[i].KuberosRole = v1.RoleUnassigned
		c.ClusterNodeSet[i].KuberosRegistered = false
	}
	s.replyStatus(w, http.StatusOK, true, fmt.Sprintf("Cluster %s reset", name), nil)
}

// ---------------------------------------------------------------------------
// Fleets
// ---------------------------------------------------------------------------

func (s *Server) handleListFleets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]v1.Fleet, 0, len(s.fleets))
	for _, k := range sortedKeys(s.fleets) {
		out = append(out, *s.fleets[k])
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFleet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	f, ok := s.fleets[name]
	var out v1.Fleet
	if ok {
		out = *f
	}
	s.mu.Unlock()
	if !ok {
		s.replySuccess(w, http.StatusOK, false, fmt.Sprintf("Fleet %s not found", name), nil)
		return
	}
	s.replySuccess(w, http.StatusOK, true, "", out)
}

func (s *Server) handleCreateFleet(w http.ResponseWriter, r *http.Request) {
	name, err := uploadedManifest(r, "fleet_manifest")
	if err != nil {
		s.replySuccess(w, http.StatusBadRequest, false, err.Error(), nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.fleets[name]; exists {
		s.replySuccess(w, http.StatusBadRequest, false, fmt.Sprintf("Fleet %s already exists", name), nil)
		return
	}
	s.fleets[name] = &v1.Fleet{
		UUID:        uuid.NewString(),
		FleetName:   name,
		Active:      true,
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
	}
	s.replySuccess(w, http.StatusCreated, true, fmt.Sprintf("Fleet %s created", name), nil)
}

func (s *Server) handleDeleteFleet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fleets[name]; !ok {
		s.replySuccess(w, http.StatusNotFound, false, fmt.Sprintf("Fleet %s not found", name), nil)
		return
	}
	delete(s.fleets, name)
	s.replySuccess(w, http.StatusOK, true, fmt.Sprintf("Fleet %s disbanded", name), nil)
}

// ---------------------------------------------------------------------------
// Deployments
// ---------------------------------------------------------------------------

func (s *Server) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]v1.Deployment, 0, len(s.deployments))
	for _, k := range sortedKeys(s.deployments) {
		out = append(out, *s.deployments[k])
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	d, ok := s.deployments[name]
	var out v1.Deployment
	if ok {
		out = *d
	}
	s.mu.Unlock()
	if !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Deployment %s not found", name), nil)
		return
	}
	s.replyStatus(w, http.StatusOK, true, "", out)
}

func (s *Server) handleDeleteDeployment(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deployments[name]; !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Deployment %s not found", name), nil)
		return
	}
	delete(s.deployments, name)
	s.replyStatus(w, http.StatusOK, true, fmt.Sprintf("Deployment %s deleted from database", name), nil)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	name, err := uploadedManifest(r, "deployment_yaml")
	if err != nil {
		s.replySuccess(w, http.StatusBadRequest, false, err.Error(), nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deployments[name]; exists {
		s.replySuccess(w, http.StatusConflict, false, fmt.Sprintf("Deployment %s already exists", name), nil)
		return
	}
	s.deployments[name] = &v1.Deployment{
		Name:         name,
		Status:       "deploying",
		RunningSince: time.Now().UTC().Format(time.RFC3339),
	}
	s.replySuccess(w, http.StatusCreated, true, fmt.Sprintf("Deployment %s accepted", name), nil)
}

func (s *Server) handleUndeploy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deployments[name]
	if !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Deployment %s not found", name), nil)
		return
	}
	d.Status = "deleting"
	s.replyStatus(w, http.StatusOK, true, fmt.Sprintf("Deployment %s is being deleted", name), nil)
}

// ---------------------------------------------------------------------------
// Batch jobs
// ---------------------------------------------------------------------------

func (s *Server) handleListBatchJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]v1.BatchJob, 0, len(s.batchJobs))
	for _, k := range sortedKeys(s.batchJobs) {
		out = append(out, *s.batchJobs[k])
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBatchJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	j, ok := s.batchJobs[name]
	var out v1.BatchJob
	if ok {
		out = *j
	}
	s.mu.Unlock()
	if !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Batch job %s not found", name), nil)
		return
	}
	s.replyStatus(w, http.StatusOK, true, "", out)
}

func (s *Server) handleDeleteBatchJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batchJobs[name]; !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Batch job %s not found", name), nil)
		return
	}
	delete(s.batchJobs, name)
	s.replyStatus(w, http.StatusOK, true, fmt.Sprintf("Batch job %s deleted", name), nil)
}

// ---------------------------------------------------------------------------
// Registry tokens
// ---------------------------------------------------------------------------

func (s *Server) handleListRegistryTokens(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]v1.RegistryToken, 0, len(s.tokens))
	for _, k := range sortedKeys(s.tokens) {
		out = append(out, *s.tokens[k])
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRegistryToken(w http.ResponseWriter, r *http.Request) {
	var t v1.RegistryToken
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.replyStatus(w, http.StatusBadRequest, false, "JSON parse error", nil)
		return
	}
	if t.Name == "" || t.RegistryURL == "" || t.UserName == "" || t.Password == "" {
		s.replyStatus(w, http.StatusBadRequest, false, "name, registry_url, user_name and password are required", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tokens {
		if existing.Name == t.Name {
			s.replyStatus(w, http.StatusBadRequest, false, fmt.Sprintf("Registry token %s already exists", t.Name), nil)
			return
		}
	}
	t.UUID = uuid.NewString()
	t.Password = ""
	s.tokens[t.UUID] = &t
	s.replyStatus(w, http.StatusCreated, true, fmt.Sprintf("Registry token %s created", t.Name), t)
}

func (s *Server) handleDeleteRegistryToken(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Registry token %s not found", id), nil)
		return
	}
	delete(s.tokens, id)
	s.replyStatus(w, http.StatusOK, true, fmt.Sprintf("Registry token %s deleted", t.Name), nil)
}

func (s *Server) handleAttachRegistryToken(w http.ResponseWriter, r *http.Request) {
	a := v1.RegistryTokenAttachment{
		ClusterName: r.FormValue("cluster_name"),
		TokenName:   r.FormValue("token_name"),
		Namespace:   r.FormValue("namespace"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusters[a.ClusterName]; !ok {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Cluster %s not found", a.ClusterName), nil)
		return
	}
	found := false
	for _, t := range s.tokens {
		if t.Name == a.TokenName {
			found = true
			break
		}
	}
	if !found {
		s.replyStatus(w, http.StatusNotFound, false, fmt.Sprintf("Registry token %s not found", a.TokenName), nil)
		return
	}
	s.attachments = append(s.attachments, a)
	s.replyStatus(w, http.StatusOK, true,
		fmt.Sprintf("Registry token %s attached to %s/%s", a.TokenName, a.ClusterName, a.Namespace), nil)
}
