// Command server is the deploy controller's long-running process: it
// loads configuration from the environment, wires every internal
// collaborator together, and binds the single dispatch endpoint.
//
// Exit codes: non-zero on any fatal startup error (missing environment
// variable, logger construction failure, orchestrator client construction
// failure, listener bind failure) or when the listener stops; otherwise the
// process serves until it is killed.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/bcactf/arcs-deploy-controller/internal/config"
	"github.com/bcactf/arcs-deploy-controller/internal/dispatcher"
	"github.com/bcactf/arcs-deploy-controller/internal/gitmanager"
	"github.com/bcactf/arcs-deploy-controller/internal/logging"
	"github.com/bcactf/arcs-deploy-controller/internal/pipeline"
	"github.com/bcactf/arcs-deploy-controller/internal/polling"
	"github.com/bcactf/arcs-deploy-controller/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	development := os.Getenv("ENV") == "development"
	log, err := logging.New(development)
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}

	k8sClient, err := client.New(ctrl.GetConfigOrDie(), client.Options{Scheme: scheme.Scheme})
	if err != nil {
		return fmt.Errorf("constructing orchestrator client: %w", err)
	}

	git := gitmanager.New(cfg.ChallFolder, cfg.GitBranch, cfg.GitSSHKeyPath, cfg.GitEmail)
	registry := polling.New()
	emitter := webhook.New(cfg.WebhookAddress, cfg.WebhookServerAuthToken, log)

	engine := &pipeline.Engine{
		Images: &pipeline.ImageEngine{
			Registry:    cfg.DockerRegistryURL,
			ChallFolder: cfg.ChallFolder,
		},
		Deployer: &pipeline.K8sDeployer{
			Client:    k8sClient,
			Namespace: "arcs-challenges",
		},
		Static: &pipeline.StaticUploader{
			HTTPClient:  &http.Client{Timeout: 30 * time.Second},
			BucketURL:   cfg.S3Address,
			BearerToken: cfg.S3SecretKey,
			ChallFolder: cfg.ChallFolder,
		},
		Git:            git,
		Webhook:        emitter,
		Registry:       registry,
		Log:            log,
		DisplayAddress: cfg.S3DisplayAddress,
	}

	d := &dispatcher.Dispatcher{
		Engine:   engine,
		Registry: registry,
		Git:      git,
		Lookup:   dispatcher.NewGitLookup(git),
		Log:      log,
	}

	router := dispatcher.NewRouter(d, cfg.DeployServerAuthToken)

	log.Info("deploy controller listening", "addr", cfg.DeployAddress)
	if err := http.ListenAndServe(cfg.DeployAddress, router); err != nil {
		return fmt.Errorf("listener: %w", err)
	}
	return nil
}
