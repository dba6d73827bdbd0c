package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	corev1 "k8s.io/api/core/v1"
	appsv1 "k8s.io/api/apps/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

const specHashAnnotation = "arcs.bcactf.com/spec-hash"

var dnsDisallowed = regexp.MustCompile(`[^a-z0-9-]+`)

// safeName sanitizes a challenge/target name into a DNS-1035 label:
// lowercase, alphanumeric-and-hyphen only, and not starting with a digit.
func safeName(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "-"))
	joined = dnsDisallowed.ReplaceAllString(joined, "-")
	joined = strings.Trim(joined, "-")
	if joined == "" {
		joined = "chall"
	}
	if joined[0] >= '0' && joined[0] <= '9' {
		joined = "c-" + joined
	}
	if len(joined) > 63 {
		joined = joined[:63]
	}
	return joined
}

func computeSpecHash(spec any) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v", spec)))
	return hex.EncodeToString(sum[:])[:16]
}

// K8sDeployer drives the orchestrator side of the Deploy stage: one
// Deployment and one NodePort Service per deploy target. It follows the
// same create-if-missing / patch-if-spec-changed idempotency pattern used
// to reconcile custom resources — a spec-hash annotation lets repeated
// calls with the same inputs skip the API write entirely.
type K8sDeployer struct {
	Client    client.Client
	Namespace string
}

// Deploy ensures a Deployment+Service pair exists for one challenge
// target, and returns the NodePort(s) the Service was allocated. Resource
// names are derived from the challenge name alone, not the target — a
// redeploy to a different target replaces the previous target's workload
// under the same name rather than running alongside it.
func (d *K8sDeployer) Deploy(ctx context.Context, challName string, target yamlshape.DeployTargetType, spec yamlshape.DeployTarget, image string) ([]int32, error) {
	name := safeName(challName)
	serviceName := name + "-service"

	deployment := buildDeployment(d.Namespace, name, image, spec)
	if err := d.applyDeployment(ctx, deployment); err != nil {
		return nil, apierrors.NewExternalError(apierrors.OrchestratorLogin, "failed to apply deployment", err)
	}

	svc := buildService(d.Namespace, serviceName, name, spec)
	if err := d.applyService(ctx, svc); err != nil {
		return nil, apierrors.NewExternalError(apierrors.OrchestratorLogin, "failed to apply service", err)
	}

	var live corev1.Service
	if err := d.Client.Get(ctx, client.ObjectKeyFromObject(svc), &live); err != nil {
		return nil, apierrors.NewExternalError(apierrors.OrchestratorLogin, "failed to read back service", err)
	}

	var ports []int32
	for _, p := range live.Spec.Ports {
		if p.NodePort != 0 {
			ports = append(ports, p.NodePort)
		}
	}
	return ports, nil
}

// Delete removes the Deployment (named `{chall_name}`) and Service (named
// `{chall_name}-service`) for a challenge. A missing object is treated as
// already-deleted: callers warn, they don't fail.
func (d *K8sDeployer) Delete(ctx context.Context, challName string, target yamlshape.DeployTargetType) (warnings []string, err error) {
	name := safeName(challName)
	serviceName := name + "-service"

	dep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: d.Namespace}}
	if derr := d.Client.Delete(ctx, dep); derr != nil {
		if apierrs.IsNotFound(derr) {
			warnings = append(warnings, fmt.Sprintf("deployment %s was already absent", name))
		} else {
			return warnings, apierrors.NewExternalError(apierrors.OrchestratorLogin, "failed to delete deployment", derr)
		}
	}

	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: serviceName, Namespace: d.Namespace}}
	if serr := d.Client.Delete(ctx, svc); serr != nil {
		if apierrs.IsNotFound(serr) {
			warnings = append(warnings, fmt.Sprintf("service %s was already absent", serviceName))
		} else {
			return warnings, apierrors.NewExternalError(apierrors.OrchestratorLogin, "failed to delete service", serr)
		}
	}

	return warnings, nil
}

func (d *K8sDeployer) applyDeployment(ctx context.Context, want *appsv1.Deployment) error {
	var existing appsv1.Deployment
	err := d.Client.Get(ctx, client.ObjectKeyFromObject(want), &existing)
	if apierrs.IsNotFound(err) {
		return d.Client.Create(ctx, want)
	}
	if err != nil {
		return err
	}
	if existing.Annotations[specHashAnnotation] == want.Annotations[specHashAnnotation] {
		return nil
	}
	existing.Spec = want.Spec
	existing.Annotations = want.Annotations
	return d.Client.Update(ctx, &existing)
}

func (d *K8sDeployer) applyService(ctx context.Context, want *corev1.Service) error {
	var existing corev1.Service
	err := d.Client.Get(ctx, client.ObjectKeyFromObject(want), &existing)
	if apierrs.IsNotFound(err) {
		return d.Client.Create(ctx, want)
	}
	if err != nil {
		return err
	}
	if existing.Annotations[specHashAnnotation] == want.Annotations[specHashAnnotation] {
		return nil
	}
	// NodePort and ClusterIP are immutable once assigned; keep them and
	// only update the parts a spec change can actually touch.
	existing.Spec.Selector = want.Spec.Selector
	for i := range existing.Spec.Ports {
		if i < len(want.Spec.Ports) {
			existing.Spec.Ports[i].Port = want.Spec.Ports[i].Port
			existing.Spec.Ports[i].TargetPort = want.Spec.Ports[i].TargetPort
			existing.Spec.Ports[i].Protocol = want.Spec.Ports[i].Protocol
		}
	}
	existing.Annotations = want.Annotations
	return d.Client.Update(ctx, &existing)
}

func buildDeployment(namespace, name, image string, spec yamlshape.DeployTarget) *appsv1.Deployment {
	replicas := int32(spec.Replicas)
	if replicas == 0 {
		replicas = 1
	}
	labels := map[string]string{"arcs.bcactf.com/challenge": name}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Annotations: map[string]string{
				specHashAnnotation: computeSpecHash(spec),
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  name,
							Image: image,
							Ports: []corev1.ContainerPort{
								{ContainerPort: int32(spec.Expose.Port)},
							},
						},
					},
				},
			},
		},
	}
}

// buildService builds the Service fronting a Deployment. name is the
// Service's own object name (`{chall_name}-service`); selectorName selects
// the Deployment's pods and must match the labels buildDeployment assigned.
func buildService(namespace, name, selectorName string, spec yamlshape.DeployTarget) *corev1.Service {
	labels := map[string]string{"arcs.bcactf.com/challenge": selectorName}
	protocol := corev1.ProtocolTCP
	if spec.Expose.Protocol == yamlshape.ProtocolUdp {
		protocol = corev1.ProtocolUDP
	}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Annotations: map[string]string{
				specHashAnnotation: computeSpecHash(spec),
			},
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeNodePort,
			Selector: labels,
			Ports: []corev1.ServicePort{
				{
					Port:       int32(spec.Expose.Port),
					TargetPort: intstr.FromInt(int(spec.Expose.Port)),
					Protocol:   protocol,
				},
			},
		},
	}
}
