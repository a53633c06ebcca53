package kube

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"

	"todosmoke/pkg/logging"
)

func newRoute(namespace, name string, spec, status map[string]interface{}) *unstructured.Unstructured {
	obj := map[string]interface{}{
		"apiVersion": "route.openshift.io/v1",
		"kind":       "Route",
		"metadata": map[string]interface{}{
			"namespace": namespace,
			"name":      name,
		},
		"spec": spec,
	}
	if status != nil {
		obj["status"] = status
	}
	return &unstructured.Unstructured{Object: obj}
}

func TestParseObjectRef(t *testing.T) {
	tests := []struct {
		in      string
		want    ObjectRef
		wantErr bool
	}{
		{in: "todo/todolist", want: ObjectRef{Namespace: "todo", Name: "todolist"}},
		{in: " todo/todolist ", want: ObjectRef{Namespace: "todo", Name: "todolist"}},
		{in: "todolist", wantErr: true},
		{in: "/todolist", wantErr: true},
		{in: "todo/", wantErr: true},
		{in: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseObjectRef(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "todo/todolist", got.String())
		})
	}
}

func TestRouteURL(t *testing.T) {
	tests := []struct {
		name    string
		route   *unstructured.Unstructured
		want    string
		wantErr string
	}{
		{
			name:  "plain host",
			route: newRoute("todo", "todolist", map[string]interface{}{"host": "todolist-todo.apps.example.com"}, nil),
			want:  "http://todolist-todo.apps.example.com",
		},
		{
			name: "tls edge",
			route: newRoute("todo", "todolist", map[string]interface{}{
				"host": "todolist-todo.apps.example.com",
				"tls":  map[string]interface{}{"termination": "edge"},
			}, nil),
			want: "https://todolist-todo.apps.example.com",
		},
		{
			name: "status host",
			route: newRoute("todo", "todolist", map[string]interface{}{}, map[string]interface{}{
				"ingress": []interface{}{map[string]interface{}{"host": "generated.apps.example.com"}},
			}),
			want: "http://generated.apps.example.com",
		},
		{
			name:    "no host",
			route:   newRoute("todo", "todolist", map[string]interface{}{}, nil),
			wantErr: "has no host",
		},
		{
			name:    "not found",
			route:   newRoute("other", "todolist", map[string]interface{}{"host": "x"}, nil),
			wantErr: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dynamicClient := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme(), tt.route)
			resolver := NewResolverWithClients(dynamicClient, fake.NewSimpleClientset())

			got, err := resolver.RouteURL(context.Background(), ObjectRef{Namespace: "todo", Name: "todolist"})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngressURL(t *testing.T) {
	meta := metav1.ObjectMeta{Namespace: "todo", Name: "todolist"}

	tests := []struct {
		name    string
		ingress *networkingv1.Ingress
		want    string
		wantErr string
	}{
		{
			name: "rule host",
			ingress: &networkingv1.Ingress{
				ObjectMeta: meta,
				Spec: networkingv1.IngressSpec{
					Rules: []networkingv1.IngressRule{{Host: ""}, {Host: "todo.example.com"}},
				},
			},
			want: "http://todo.example.com",
		},
		{
			name: "tls host",
			ingress: &networkingv1.Ingress{
				ObjectMeta: meta,
				Spec: networkingv1.IngressSpec{
					Rules: []networkingv1.IngressRule{{Host: "todo.example.com"}},
					TLS:   []networkingv1.IngressTLS{{Hosts: []string{"todo.example.com"}}},
				},
			},
			want: "https://todo.example.com",
		},
		{
			name: "tls for another host",
			ingress: &networkingv1.Ingress{
				ObjectMeta: meta,
				Spec: networkingv1.IngressSpec{
					Rules: []networkingv1.IngressRule{{Host: "todo.example.com"}},
					TLS:   []networkingv1.IngressTLS{{Hosts: []string{"other.example.com"}}},
				},
			},
			want: "http://todo.example.com",
		},
		{
			name: "load balancer ip",
			ingress: &networkingv1.Ingress{
				ObjectMeta: meta,
				Status: networkingv1.IngressStatus{
					LoadBalancer: networkingv1.IngressLoadBalancerStatus{
						Ingress: []networkingv1.IngressLoadBalancerIngress{{IP: "10.0.0.7"}},
					},
				},
			},
			want: "http://10.0.0.7",
		},
		{
			name:    "no address",
			ingress: &networkingv1.Ingress{ObjectMeta: meta},
			wantErr: "no host or load balancer address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewSimpleClientset(tt.ingress)
			resolver := NewResolverWithClients(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme()), clientset)

			got, err := resolver.IngressURL(context.Background(), ObjectRef{Namespace: "todo", Name: "todolist"})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngressURL_NotFound(t *testing.T) {
	resolver := NewResolverWithClients(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme()), fake.NewSimpleClientset())

	_, err := resolver.IngressURL(context.Background(), ObjectRef{Namespace: "todo", Name: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingress todo/missing not found")
}

func TestRouteURL_LogsResolutionOnce(t *testing.T) {
	var logs bytes.Buffer
	logging.InitForCLI(logging.LevelInfo, &logs)
	t.Cleanup(func() { logging.InitForCLI(logging.LevelError, io.Discard) })

	route := newRoute("todo", "todolist", map[string]interface{}{"host": "todolist-todo.apps.example.com"}, nil)
	resolver := NewResolverWithClients(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme(), route), fake.NewSimpleClientset())

	_, err := resolver.RouteURL(context.Background(), ObjectRef{Namespace: "todo", Name: "todolist"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(logs.String(), "Resolved route todo/todolist"))
}
