// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/openfga/go-sdk/client"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/canonical/center-service/internal/authorization"
	"github.com/canonical/center-service/internal/logging"
	"github.com/canonical/center-service/internal/monitoring"
	"github.com/canonical/center-service/internal/openfga"
	"github.com/canonical/center-service/internal/tracing"
)

// keys read back by serve through OPENFGA_* env vars
const (
	configMapStoreKey = "OPENFGA_STORE_ID"
	configMapModelKey = "OPENFGA_AUTHORIZATION_MODEL_ID"
)

type fgaModelOptions struct {
	apiURL       string
	apiToken     string
	storeID      string
	modelVersion string
	format       string
	configMap    string
	kubeconfig   string
	printDSL     bool
	verbose      bool
}

// fgaProvision is what a run leaves behind in openfga
type fgaProvision struct {
	StoreID      string `json:"store_id"`
	ModelID      string `json:"model_id"`
	ModelVersion string `json:"model_version"`
	StoreCreated bool   `json:"store_created"`
}

var fgaOpts fgaModelOptions

var createFgaModelCmd = &cobra.Command{
	Use:   "create-fga-model",
	Short: "Publish the center role model to openfga",
	Long: `Publish the relations mirroring center roles (owner, adminPlus, admin, student)
to an openfga store, creating the store when no id is given.

The resulting store and model ids are what serve expects in OPENFGA_STORE_ID and
OPENFGA_AUTHORIZATION_MODEL_ID, pass --store-k8s-configmap-resource to write them
to a configmap directly.`,
	Example: `  center-service create-fga-model --fga-api-url http://localhost:8080 --fga-api-token secret
  center-service create-fga-model --print-dsl`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := authorization.NewAuthorizationModelProvider(fgaOpts.modelVersion)

		if fgaOpts.printDSL {
			cmd.Print(provider.DSL())
			return nil
		}

		if fgaOpts.apiURL == "" || fgaOpts.apiToken == "" {
			return fmt.Errorf("--fga-api-url and --fga-api-token are required to publish the model")
		}

		p, err := provisionModel(cmd.Context(), provider, fgaOpts)
		if err != nil {
			return err
		}

		if fgaOpts.configMap != "" {
			clientset, err := kubeClient(fgaOpts.kubeconfig)
			if err != nil {
				return err
			}
			if err := publishConfigMap(cmd.Context(), clientset, fgaOpts.configMap, p); err != nil {
				return fmt.Errorf("failed to publish ids to configmap %s: %w", fgaOpts.configMap, err)
			}
		}

		return printProvision(cmd, p, fgaOpts.format)
	},
}

func init() {
	rootCmd.AddCommand(createFgaModelCmd)

	f := createFgaModelCmd.Flags()
	f.StringVar(&fgaOpts.apiURL, "fga-api-url", "", "openfga API URL, e.g. http://openfga:8080")
	f.StringVar(&fgaOpts.apiToken, "fga-api-token", "", "openfga preshared API token")
	f.StringVar(&fgaOpts.storeID, "fga-store-id", "", "Store receiving the model, a new store is created when empty")
	f.StringVar(&fgaOpts.modelVersion, "model-version", "v0", "Version of the center role model to publish")
	f.StringVarP(&fgaOpts.format, "format", "f", "text", "Output format (text or json)")
	f.StringVar(&fgaOpts.configMap, "store-k8s-configmap-resource", "", "Configmap receiving the store and model ids, format: namespace/name")
	f.StringVar(&fgaOpts.kubeconfig, "kubeconfig", "", "Path to a kubeconfig, in-cluster config is tried first when empty")
	f.BoolVar(&fgaOpts.printDSL, "print-dsl", false, "Print the model DSL and exit without contacting openfga")
	f.BoolVarP(&fgaOpts.verbose, "verbose", "v", false, "Log openfga requests")
}

func provisionModel(ctx context.Context, provider *authorization.AuthorizationModelProvider, opts fgaModelOptions) (*fgaProvision, error) {
	logger := logging.NewNoopLogger()
	if opts.verbose {
		logger = logging.NewLogger("debug")
	}
	defer logger.Sync()

	u, err := url.Parse(opts.apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid openfga url %q", opts.apiURL)
	}

	// no model id yet, the client skips validation without one
	fgaClient := openfga.NewClient(
		openfga.NewConfig(u.Scheme, u.Host, opts.storeID, opts.apiToken, "", opts.verbose, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(serviceName, logger), logger),
	)

	p := &fgaProvision{StoreID: opts.storeID, ModelVersion: opts.modelVersion}

	if p.StoreID == "" {
		if p.StoreID, err = fgaClient.CreateStore(ctx, serviceName); err != nil {
			return nil, fmt.Errorf("failed to create store %s: %w", serviceName, err)
		}
		p.StoreCreated = true
		logger.Debugf("created openfga store %s", p.StoreID)

		fgaClient.SetStoreID(ctx, p.StoreID)
	}

	model := provider.GetModel()
	p.ModelID, err = fgaClient.WriteModel(ctx, &client.ClientWriteAuthorizationModelRequest{
		TypeDefinitions: model.TypeDefinitions,
		SchemaVersion:   model.SchemaVersion,
		Conditions:      model.Conditions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write center model %s: %w", opts.modelVersion, err)
	}
	logger.Debugf("wrote center model %s as %s", opts.modelVersion, p.ModelID)

	return p, nil
}

func printProvision(cmd *cobra.Command, p *fgaProvision, format string) error {
	if format == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(p)
	}

	if p.StoreCreated {
		cmd.Printf("%s=%s (new store)\n", configMapStoreKey, p.StoreID)
	} else {
		cmd.Printf("%s=%s\n", configMapStoreKey, p.StoreID)
	}
	cmd.Printf("%s=%s\n", configMapModelKey, p.ModelID)

	return nil
}

func kubeClient(kubeconfigPath string) (kubernetes.Interface, error) {
	var (
		config *rest.Config
		err    error
	)

	switch {
	case kubeconfigPath != "":
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	default:
		if config, err = rest.InClusterConfig(); err != nil {
			// outside a cluster, use whatever kubectl would
			config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
				clientcmd.NewDefaultClientConfigLoadingRules(),
				&clientcmd.ConfigOverrides{},
			).ClientConfig()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return clientset, nil
}

// publishConfigMap upserts the openfga ids into namespace/name, other keys
// of an existing configmap are preserved
func publishConfigMap(ctx context.Context, clientset kubernetes.Interface, resource string, p *fgaProvision) error {
	namespace, name, ok := strings.Cut(resource, "/")
	if !ok || namespace == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("expected namespace/name, got %q", resource)
	}

	configMaps := clientset.CoreV1().ConfigMaps(namespace)

	cm, err := configMaps.Get(ctx, name, metav1.GetOptions{})
	if k8serrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace}}
		setProvision(cm, p)

		_, err = configMaps.Create(ctx, cm, metav1.CreateOptions{})
		return err
	}
	if err != nil {
		return err
	}

	setProvision(cm, p)
	_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})

	return err
}

func setProvision(cm *corev1.ConfigMap, p *fgaProvision) {
	if cm.Data == nil {
		cm.Data = make(map[string]string, 2)
	}

	cm.Data[configMapStoreKey] = p.StoreID
	cm.Data[configMapModelKey] = p.ModelID
}
