package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL       string
	producerToken string
	admin         bool
	httpClient    *http.Client
}

type jobResp struct {
	ID     string `json:"id"`
	Nonce  string `json:"nonce"`
	Status string `json:"status"`
}

type queueStats struct {
	Waiting    int64 `json:"waiting"`
	Generating int64 `json:"generating"`
	Generated  int64 `json:"generated"`
	Failed     int64 `json:"failed"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

const defaultIAMBaseURL = "https://api.storifly.ai/v1/accounts"

type profile struct {
	BaseURL       string     `yaml:"baseUrl"`
	IAMBaseURL    string     `yaml:"iamBaseUrl"`
	IAMAPIKey     string     `yaml:"iamApiKey"`
	Token         string     `yaml:"token"`
	ProducerToken string     `yaml:"producerToken"`
	Auth          authConfig `yaml:"auth"`
	Admin         bool       `yaml:"admin"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

type authConfig struct {
	Login loginConfig `yaml:"login"`
}

type loginConfig struct {
	URLTemplate  string            `yaml:"urlTemplate"`
	Method       string            `yaml:"method"`
	Headers      map[string]string `yaml:"headers"`
	BodyTemplate string            `yaml:"bodyTemplate"`
	ContentType  string            `yaml:"contentType"`
	TokenPath    string            `yaml:"tokenPath"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.producerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.producerToken)
	}
	if c.admin {
		req.Header.Set("X-Role", "ADMIN")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func main() {
	baseURL := getenv("PROOFBRIDGE_BASE_URL", "http://localhost:8080")
	producerToken := getenv("PROOFBRIDGE_PRODUCER_TOKEN", "")
	admin := getenvBool("PROOFBRIDGE_ADMIN", isLocalURL(baseURL))
	profileName := getenv("PROOFBRIDGE_PROFILE", "")
	iamBaseURL := getenv("PROOFBRIDGE_IAM_BASE_URL", defaultIAMBaseURL)
	iamAPIKey := getenv("PROOFBRIDGE_IAM_API_KEY", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "proofctl",
		Short: "proofbridge CLI",
		Long:  "proofctl submits JWTs for proof generation and inspects the proof job queue.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for proofbridge")
	root.PersistentFlags().StringVar(&iamBaseURL, "iam-base-url", iamBaseURL, "IAM base URL")
	root.PersistentFlags().StringVar(&iamAPIKey, "iam-api-key", iamAPIKey, "IAM API key")
	root.PersistentFlags().StringVar(&producerToken, "producer-token", producerToken, "Producer token (OAuth2 ID token)")
	root.PersistentFlags().BoolVar(&admin, "admin", admin, "Send X-Role: ADMIN (dev only)")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("iam-base-url") {
			if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_IAM_BASE_URL")); v != "" {
				iamBaseURL = v
			} else if prof.IAMBaseURL != "" {
				iamBaseURL = prof.IAMBaseURL
			}
		}
		if !flags.Changed("iam-api-key") {
			if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_IAM_API_KEY")); v != "" {
				iamAPIKey = v
			} else if prof.IAMAPIKey != "" {
				iamAPIKey = prof.IAMAPIKey
			}
		}
		if prof.Auth.Login.URLTemplate == "" {
			prof.Auth.Login = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
		}
		if !flags.Changed("producer-token") {
			if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_PRODUCER_TOKEN")); v != "" {
				producerToken = v
			} else if prof.Token != "" {
				producerToken = prof.Token
			} else if prof.ProducerToken != "" {
				producerToken = prof.ProducerToken
			}
		}
		if !flags.Changed("admin") {
			if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_ADMIN")); v != "" {
				admin = getenvBool("PROOFBRIDGE_ADMIN", admin)
			} else if prof.Admin {
				admin = true
			} else if isLocalURL(baseURL) {
				admin = true
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, &iamBaseURL, &iamAPIKey, ui))
	root.AddCommand(authCmd(&profileName, &iamBaseURL, &iamAPIKey, ui))
	root.AddCommand(submitCmd(&baseURL, &producerToken, &admin, ui))
	root.AddCommand(jobCmd(&baseURL, &producerToken, &admin, ui))
	root.AddCommand(adminCmd(&baseURL, &producerToken, &admin, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, iamBaseURL *string, iamAPIKey *string, ui *ui) *cobra.Command {
	var (
		baseURL       string
		iamURL        string
		iamKey        string
		producerToken string
		admin         bool
		noPrompt      bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}
			if iamURL == "" {
				iamURL = prof.IAMBaseURL
			}
			if iamURL == "" {
				iamURL = *iamBaseURL
			}
			if iamURL == "" {
				iamURL = defaultIAMBaseURL
			}
			if iamKey == "" {
				iamKey = prof.IAMAPIKey
			}
			if iamKey == "" {
				iamKey = *iamAPIKey
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
				iamURL = prompt(reader, "IAM Base URL", iamURL)
				iamKey = prompt(reader, "IAM API Key", iamKey)
				if producerToken == "" {
					producerToken = prompt(reader, "Producer token (optional)", "")
				}
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			prof.IAMBaseURL = strings.TrimSpace(iamURL)
			prof.IAMAPIKey = strings.TrimSpace(iamKey)
			if prof.Auth.Login.URLTemplate == "" {
				prof.Auth.Login = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
			}
			if producerToken != "" {
				prof.ProducerToken = strings.TrimSpace(producerToken)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for proofbridge")
	cmd.Flags().StringVar(&iamURL, "iam-base-url", "", "IAM base URL")
	cmd.Flags().StringVar(&iamKey, "iam-api-key", "", "IAM API key")
	cmd.Flags().StringVar(&producerToken, "producer-token", "", "Producer token")
	cmd.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(profileName *string, iamBaseURL *string, iamAPIKey *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		producerToken string
		admin         bool
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Store the producer token in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if producerToken == "" && !cmd.Flags().Changed("admin") {
				return errors.New("provide --producer-token (or --admin)")
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			if producerToken != "" {
				prof.ProducerToken = strings.TrimSpace(producerToken)
				prof.Token = strings.TrimSpace(producerToken)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Credentials updated for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&producerToken, "producer-token", "", "Producer token")
	set.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")

	var (
		loginEmail       string
		loginPassword    string
		loginURL         string
		loginMethod      string
		loginCT          string
		loginPayload     string
		loginPayloadFile string
		loginTokenPath   string
		saveLoginConfig  bool
		headerKVs        []string
		noPrompt         bool
	)
	login := &cobra.Command{
		Use:   "login",
		Short: "Login via IAM and store the producer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(loginEmail)
			password := strings.TrimSpace(loginPassword)
			if email == "" && !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				email = prompt(reader, "Email", "")
			}
			if password == "" && !noPrompt {
				p, err := promptSecret("Password")
				if err != nil {
					return err
				}
				password = p
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			if *profileName == "" {
				active = profileFromEmail(email)
			}
			prof := cfg.Profiles[active]
			if prof.IAMBaseURL == "" {
				prof.IAMBaseURL = *iamBaseURL
			}
			if prof.IAMAPIKey == "" {
				prof.IAMAPIKey = *iamAPIKey
			}

			loginCfg := prof.Auth.Login
			if loginCfg.URLTemplate == "" {
				loginCfg = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
			}
			if strings.TrimSpace(loginURL) != "" {
				loginCfg.URLTemplate = loginURL
			}
			if strings.TrimSpace(loginMethod) != "" {
				loginCfg.Method = loginMethod
			}
			if strings.TrimSpace(loginCT) != "" {
				loginCfg.ContentType = loginCT
			}
			if strings.TrimSpace(loginTokenPath) != "" {
				loginCfg.TokenPath = loginTokenPath
			}
			if strings.TrimSpace(loginPayload) != "" {
				loginCfg.BodyTemplate = loginPayload
			}
			if strings.TrimSpace(loginPayloadFile) != "" {
				data, err := os.ReadFile(loginPayloadFile)
				if err != nil {
					return err
				}
				loginCfg.BodyTemplate = string(data)
			}
			if len(headerKVs) > 0 {
				if loginCfg.Headers == nil {
					loginCfg.Headers = map[string]string{}
				}
				for _, kv := range headerKVs {
					k, v, ok := strings.Cut(kv, ":")
					if !ok {
						return fmt.Errorf("invalid header: %s (expected Key: Value)", kv)
					}
					loginCfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
				}
			}

			token, err := iamLoginGeneric(loginCfg, prof.IAMBaseURL, prof.IAMAPIKey, email, password)
			if err != nil {
				return err
			}
			prof.Token = token
			prof.ProducerToken = token

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			if saveLoginConfig {
				prof.Auth.Login = loginCfg
			}
			cfg.Profiles[active] = prof
			cfg.CurrentProfile = active
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Logged in. Token stored for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	login.Flags().StringVar(&loginEmail, "email", "", "Email for login")
	login.Flags().StringVar(&loginPassword, "password", "", "Password for login")
	login.Flags().StringVar(&loginURL, "login-url", "", "Override IAM login URL (template allowed)")
	login.Flags().StringVar(&loginMethod, "method", "", "HTTP method (default POST)")
	login.Flags().StringVar(&loginCT, "content-type", "", "Content-Type override")
	login.Flags().StringVar(&loginPayload, "payload", "", "Login payload (template allowed)")
	login.Flags().StringVar(&loginPayloadFile, "payload-file", "", "Login payload file (template allowed)")
	login.Flags().StringVar(&loginTokenPath, "token-path", "", "JSON token path (default idToken)")
	login.Flags().StringArrayVar(&headerKVs, "header", nil, "Extra headers (Key: Value)")
	login.Flags().BoolVar(&saveLoginConfig, "save", true, "Save login config for this profile")
	login.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("proofctl"), active)
			fmt.Printf("%s Base URL: %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s IAM URL:  %s\n", ui.info("•"), emptyOr(prof.IAMBaseURL, "<unset>"))
			fmt.Printf("%s API Key:  %s\n", ui.info("•"), maskToken(prof.IAMAPIKey))
			fmt.Printf("%s Login URL: %s\n", ui.info("•"), emptyOr(prof.Auth.Login.URLTemplate, "<unset>"))
			fmt.Printf("%s Token Path: %s\n", ui.info("•"), emptyOr(prof.Auth.Login.TokenPath, "<unset>"))
			fmt.Printf("%s Token:    %s\n", ui.info("•"), maskToken(firstNonEmpty(prof.Token, prof.ProducerToken)))
			fmt.Printf("%s Admin:    %v\n", ui.info("•"), prof.Admin)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			prof.ProducerToken = ""
			prof.Token = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Token cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(login, set, show, clear)
	return auth
}

func submitCmd(baseURL, producerToken *string, admin *bool, ui *ui) *cobra.Command {
	var (
		jwt        string
		jwtFile    string
		salt       string
		ephPubKey  string
		maxEpoch   string
		randomness string
	)

	cmd := &cobra.Command{
		Use:     "submit",
		Short:   "Submit a JWT for proof generation",
		Example: `proofctl submit --jwt-file id_token.txt --salt 123456789 --eph-pubkey 0x0102... --max-epoch 10 --randomness 987654321`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(jwtFile) != "" {
				data, err := os.ReadFile(jwtFile)
				if err != nil {
					return fmt.Errorf("read jwt file: %w", err)
				}
				jwt = strings.TrimSpace(string(data))
			}
			if strings.TrimSpace(jwt) == "" {
				return errors.New("--jwt or --jwt-file is required")
			}
			for name, v := range map[string]string{"salt": salt, "eph-pubkey": ephPubKey, "max-epoch": maxEpoch, "randomness": randomness} {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("--%s is required", name)
				}
			}
			if *producerToken == "" {
				return errors.New("a producer token is required (run `proofctl auth login` or set --producer-token)")
			}

			c := &client{baseURL: strings.TrimRight(*baseURL, "/"), producerToken: *producerToken, admin: *admin, httpClient: &http.Client{Timeout: 30 * time.Second}}
			body := map[string]any{
				"jwt":                jwt,
				"salt":               salt,
				"ephemeralPublicKey": ephPubKey,
				"maxEpoch":           maxEpoch,
				"randomness":         randomness,
			}

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Submitting proof request..."
			spin.Start()
			status, resp, err := c.request(http.MethodPost, "/v1/proof/requests", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out jobResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s Proof job submitted: %s (status=%s)\n", ui.ok("[OK]"), out.ID, out.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&jwt, "jwt", "", "The OAuth2 ID token")
	cmd.Flags().StringVar(&jwtFile, "jwt-file", "", "Path to a file containing the ID token")
	cmd.Flags().StringVar(&salt, "salt", "", "User identity salt")
	cmd.Flags().StringVar(&ephPubKey, "eph-pubkey", "", "Ephemeral public key (0x + 64 hex chars)")
	cmd.Flags().StringVar(&maxEpoch, "max-epoch", "", "Max epoch (decimal string)")
	cmd.Flags().StringVar(&randomness, "randomness", "", "zkLogin randomness (decimal string)")
	return cmd
}

func jobCmd(baseURL, producerToken *string, admin *bool, ui *ui) *cobra.Command {
	var (
		wait        bool
		waitTimeout time.Duration
		pollEvery   time.Duration
	)

	get := &cobra.Command{
		Use:   "job <id>",
		Short: "Fetch a proof job by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if *producerToken == "" {
				return errors.New("a producer token is required (run `proofctl auth login` or set --producer-token)")
			}
			c := &client{baseURL: strings.TrimRight(*baseURL, "/"), producerToken: *producerToken, admin: *admin, httpClient: &http.Client{Timeout: 30 * time.Second}}

			if !wait {
				spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
				spin.Suffix = " Fetching job..."
				spin.Start()
				status, resp, err := c.request(http.MethodGet, "/v1/proof/jobs/"+url.PathEscape(id), nil)
				spin.Stop()
				if err != nil {
					return err
				}
				if status >= 300 {
					return fmt.Errorf("error (%d): %s", status, string(resp))
				}
				fmt.Println(string(resp))
				return nil
			}

			return waitForJob(c, id, waitTimeout, pollEvery)
		},
	}
	get.Flags().BoolVar(&wait, "wait", false, "poll the job until it reaches a terminal status (generated/failed)")
	get.Flags().DurationVar(&waitTimeout, "wait-timeout", 2*time.Minute, "max time to wait with --wait")
	get.Flags().DurationVar(&pollEvery, "poll-interval", time.Second, "polling interval with --wait")
	return get
}

// waitForJob polls a job id until it reaches a terminal status or timeout,
// rendering progress against the known bound (spec.md's scheduler-side
// PROOF_TIMEOUT_MS analogue) the way the teacher renders a bounded worker
// pool startup.
func waitForJob(c *client, id string, timeout, interval time.Duration) error {
	steps := int(timeout / interval)
	if steps <= 0 {
		steps = 1
	}
	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetDescription("Waiting for proof"),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	deadline := time.Now().Add(timeout)
	for i := 0; i < steps; i++ {
		status, resp, err := c.request(http.MethodGet, "/v1/proof/jobs/"+url.PathEscape(id), nil)
		if err != nil {
			return err
		}
		if status >= 300 {
			return fmt.Errorf("error (%d): %s", status, string(resp))
		}
		var job jobResp
		if err := json.Unmarshal(resp, &job); err != nil {
			return fmt.Errorf("parse job response: %w", err)
		}
		if job.Status == "generated" || job.Status == "failed" {
			_ = bar.Finish()
			fmt.Println(string(resp))
			return nil
		}
		_ = bar.Add(1)
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("timed out waiting for job %s to complete", id)
}

func adminCmd(baseURL, producerToken *string, admin *bool, ui *ui) *cobra.Command {
	var (
		limit        int
		olderThanSec int
	)

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show proof job counts by lifecycle status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *producerToken == "" {
				return errors.New("a producer token is required (run `proofctl auth login` or set --producer-token)")
			}
			c := &client{baseURL: strings.TrimRight(*baseURL, "/"), producerToken: *producerToken, admin: *admin, httpClient: &http.Client{Timeout: 30 * time.Second}}
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching stats..."
			spin.Start()
			status, resp, err := c.request(http.MethodGet, "/v1/proof/admin/stats", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out queueStats
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s: %d | %s: %d | %s: %d | %s: %d\n",
				ui.info("WAITING"), out.Waiting,
				ui.warn("GENERATING"), out.Generating,
				ui.ok("GENERATED"), out.Generated,
				ui.err("FAILED"), out.Failed,
			)
			return nil
		},
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired terminal proof jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *producerToken == "" {
				return errors.New("a producer token is required (run `proofctl auth login` or set --producer-token)")
			}
			c := &client{baseURL: strings.TrimRight(*baseURL, "/"), producerToken: *producerToken, admin: *admin, httpClient: &http.Client{Timeout: 30 * time.Second}}
			body := map[string]any{}
			if limit > 0 {
				body["limit"] = limit
			}
			if olderThanSec > 0 {
				body["olderThanSeconds"] = olderThanSec
			}
			status, resp, err := c.request(http.MethodPost, "/v1/proof/admin/cleanup", body)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Println(string(resp))
			return nil
		},
	}
	cleanup.Flags().IntVar(&limit, "limit", 500, "Max rows to delete")
	cleanup.Flags().IntVar(&olderThanSec, "older-than-seconds", 0, "Only delete rows older than this many seconds")

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative queue operations",
	}
	cmd.AddCommand(stats, cleanup)
	return cmd
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func isLocalURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "localhost" || host == "127.0.0.1"
}

func helpTemplate(ui *ui) string {
	title := ui.title("proofctl")
	return fmt.Sprintf(`%s — CLI for proofbridge

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  proofctl init
  proofctl auth login --email you@company.com
  proofctl submit --jwt-file id_token.txt --salt 123456789 --eph-pubkey 0x01.. --max-epoch 10 --randomness 987654321
  proofctl job <id>
  proofctl admin stats

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".proofctl", "config.yaml")
}

func defaultLoginConfig(iamBaseURL, apiKey string) loginConfig {
	base := strings.TrimRight(iamBaseURL, "/")
	if base == "" {
		base = defaultIAMBaseURL
	}
	return loginConfig{
		URLTemplate:  base + "/signInWithPassword?key={{apiKey}}",
		Method:       "POST",
		ContentType:  "application/json",
		TokenPath:    "idToken",
		BodyTemplate: `{"email":"{{email}}","password":"{{password}}"}`,
		Headers:      map[string]string{},
	}
}

func iamLoginGeneric(cfg loginConfig, iamBaseURL, apiKey, email, password string) (string, error) {
	if strings.TrimSpace(cfg.URLTemplate) == "" {
		cfg = defaultLoginConfig(iamBaseURL, apiKey)
	}
	if cfg.Method == "" {
		cfg.Method = "POST"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = "idToken"
	}

	vars := map[string]string{
		"email":      email,
		"password":   password,
		"apiKey":     apiKey,
		"iamBaseUrl": strings.TrimRight(iamBaseURL, "/"),
	}
	loginURL, err := renderTemplate(cfg.URLTemplate, vars)
	if err != nil {
		return "", err
	}
	bodyStr, err := renderTemplate(cfg.BodyTemplate, vars)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(cfg.Method, loginURL, bytes.NewReader([]byte(bodyStr)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", cfg.ContentType)
	for k, v := range cfg.Headers {
		if strings.TrimSpace(k) != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(out))
	}
	raw, _ := io.ReadAll(resp.Body)
	token, err := extractToken(raw, cfg.TokenPath)
	if err != nil {
		return "", err
	}
	return token, nil
}

func renderTemplate(tpl string, vars map[string]string) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", errors.New("payload template is empty")
	}
	funcs := template.FuncMap{}
	for k, v := range vars {
		val := v
		funcs[k] = func() string { return val }
	}
	t, err := template.New("tpl").Funcs(funcs).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractToken(body []byte, path string) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("invalid JSON response")
	}
	curr := v
	for _, p := range strings.Split(path, ".") {
		if p == "" {
			continue
		}
		m, ok := curr.(map[string]any)
		if !ok {
			return "", fmt.Errorf("token path not found")
		}
		curr, ok = m[p]
		if !ok {
			return "", fmt.Errorf("token path not found")
		}
	}
	if s, ok := curr.(string); ok && strings.TrimSpace(s) != "" {
		return s, nil
	}
	return "", fmt.Errorf("token not found at path")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func isTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("PROOFBRIDGE_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func profileFromEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	email = strings.ReplaceAll(email, "@", "_")
	email = strings.ReplaceAll(email, ".", "_")
	if email == "" {
		return "default"
	}
	return email
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
