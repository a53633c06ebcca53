// Package kube resolves the base URL of a todo service deployed on Kubernetes
// or OpenShift.
//
// A Resolver is built from a kubeconfig context and reads either an OpenShift
// Route (route.openshift.io/v1, through the dynamic client) or a
// networking.k8s.io/v1 Ingress. Objects are named as "namespace/name":
//
//	resolver, err := kube.NewResolver("staging")
//	ref, err := kube.ParseObjectRef("todo/todolist")
//	baseURL, err := resolver.RouteURL(ctx, ref)
package kube
