package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth" // Important for various auth providers
	"k8s.io/client-go/tools/clientcmd"

	"todosmoke/pkg/logging"
)

// RouteGVR identifies OpenShift Routes. They are read through the dynamic
// client so no OpenShift API module is needed.
var RouteGVR = schema.GroupVersionResource{
	Group:    "route.openshift.io",
	Version:  "v1",
	Resource: "routes",
}

// ObjectRef names a namespaced object.
type ObjectRef struct {
	Namespace string
	Name      string
}

func (r ObjectRef) String() string {
	return r.Namespace + "/" + r.Name
}

// ParseObjectRef parses "namespace/name".
func ParseObjectRef(s string) (ObjectRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ObjectRef{}, fmt.Errorf("invalid object reference %q, expected format namespace/name", s)
	}
	return ObjectRef{Namespace: parts[0], Name: parts[1]}, nil
}

// Resolver derives the base URL of the todo service from cluster objects.
type Resolver struct {
	dynamic   dynamic.Interface
	clientset kubernetes.Interface
}

// NewResolver builds a Resolver for the given kubeconfig context. An empty
// context selects the current one.
func NewResolver(kubeContext string) (*Resolver, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get REST config for context %q: %w", kubeContext, err)
	}
	restConfig.Timeout = 30 * time.Second

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}

	return NewResolverWithClients(dynamicClient, clientset), nil
}

// NewResolverWithClients builds a Resolver on existing clients.
func NewResolverWithClients(dynamicClient dynamic.Interface, clientset kubernetes.Interface) *Resolver {
	return &Resolver{
		dynamic:   dynamicClient,
		clientset: clientset,
	}
}

// RouteURL returns the URL exposed by an OpenShift Route. The host comes from
// spec.host, falling back to the first admitted host in status.ingress. The
// scheme is https when the Route terminates TLS.
func (r *Resolver) RouteURL(ctx context.Context, ref ObjectRef) (string, error) {
	route, err := r.dynamic.Resource(RouteGVR).Namespace(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", fmt.Errorf("route %s not found: %w", ref, err)
		}
		return "", fmt.Errorf("failed to get route %s: %w", ref, err)
	}

	host, _, _ := unstructured.NestedString(route.Object, "spec", "host")
	if host == "" {
		host = routeStatusHost(route)
	}
	if host == "" {
		return "", fmt.Errorf("route %s has no host", ref)
	}

	scheme := "http"
	if tls, found, _ := unstructured.NestedMap(route.Object, "spec", "tls"); found && len(tls) > 0 {
		scheme = "https"
	}

	url := scheme + "://" + host
	logging.Info("kube", "Resolved route %s to %s", ref, url)
	return url, nil
}

func routeStatusHost(route *unstructured.Unstructured) string {
	ingresses, _, _ := unstructured.NestedSlice(route.Object, "status", "ingress")
	for _, ing := range ingresses {
		m, ok := ing.(map[string]interface{})
		if !ok {
			continue
		}
		if host, ok := m["host"].(string); ok && host != "" {
			return host
		}
	}
	return ""
}

// IngressURL returns the URL exposed by a networking/v1 Ingress. The host is
// the first rule host, else the load balancer hostname or IP. The scheme is
// https when a TLS entry lists the host.
func (r *Resolver) IngressURL(ctx context.Context, ref ObjectRef) (string, error) {
	ing, err := r.clientset.NetworkingV1().Ingresses(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", fmt.Errorf("ingress %s not found: %w", ref, err)
		}
		return "", fmt.Errorf("failed to get ingress %s: %w", ref, err)
	}

	var host string
	for _, rule := range ing.Spec.Rules {
		if rule.Host != "" {
			host = rule.Host
			break
		}
	}
	if host == "" {
		for _, lb := range ing.Status.LoadBalancer.Ingress {
			if lb.Hostname != "" {
				host = lb.Hostname
				break
			}
			if lb.IP != "" {
				host = lb.IP
				break
			}
		}
	}
	if host == "" {
		return "", fmt.Errorf("ingress %s has no host or load balancer address", ref)
	}

	scheme := "http"
	for _, tls := range ing.Spec.TLS {
		for _, h := range tls.Hosts {
			if h == host {
				scheme = "https"
			}
		}
	}

	url := scheme + "://" + host
	logging.Info("kube", "Resolved ingress %s to %s", ref, url)
	return url, nil
}
