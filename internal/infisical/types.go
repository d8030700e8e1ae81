package infisical

// Project describes the remote project (workspace) secrets belong to.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Environments []Environment `json:"environments"`
}

// Environment is a named partition of the secret store. Slug is the
// identifier used by all secret, folder, and import operations.
type Environment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
}

// Secret is one (key, value) record at an (environment, path) coordinate.
type Secret struct {
	Key   string `json:"secretKey"`
	Value string `json:"secretValue"`
	Type  string `json:"type"`
}

// Folder is a child folder entry under some (environment, path).
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SecretImport is a directed inheritance edge. Environment and Path
// identify the source the importing coordinate falls back to.
type SecretImport struct {
	ID          string
	Environment string
	Path        string
}

// --- wire types ---

type loginRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type workspaceResponse struct {
	Workspace Project `json:"workspace"`
}

type createEnvironmentRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

type createFolderRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	Name        string `json:"name"`
	Path        string `json:"path"`
}

type deleteFolderRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	Directory   string `json:"directory"`
}

type secretsResponse struct {
	Secrets []Secret `json:"secrets"`
}

type writeSecretRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
	SecretValue string `json:"secretValue"`
	Type        string `json:"type"`
}

type deleteSecretRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
	Type        string `json:"type"`
}

type importEnvRef struct {
	Slug string `json:"slug"`
}

type wireImport struct {
	ID         string       `json:"id"`
	ImportEnv  importEnvRef `json:"importEnv"`
	ImportPath string       `json:"importPath"`
}

type importsResponse struct {
	SecretImports []wireImport `json:"secretImports"`
}

type createImportRequest struct {
	ProjectID   string          `json:"projectId"`
	Environment string          `json:"environment"`
	Path        string          `json:"path"`
	Import      importEnvTarget `json:"import"`
}

type importEnvTarget struct {
	Environment string `json:"environment"`
	Path        string `json:"path"`
}
