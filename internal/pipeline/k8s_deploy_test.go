package pipeline

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

func newFakeDeployer() *K8sDeployer {
	scheme := runtime.NewScheme()
	Expect(appsv1.AddToScheme(scheme)).To(Succeed())
	Expect(corev1.AddToScheme(scheme)).To(Succeed())

	c := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&appsv1.Deployment{}).
		Build()

	return &K8sDeployer{Client: c, Namespace: "arcs-challenges"}
}

var _ = Describe("K8sDeployer.Deploy", func() {
	var (
		ctx context.Context
		d   *K8sDeployer
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = newFakeDeployer()
	})

	It("creates a Deployment and Service for a fresh target", func() {
		target := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 8080}, Replicas: 2}

		_, err := d.Deploy(ctx, "pwn-101", yamlshape.TargetWeb, target, "registry.local/pwn-101:latest")
		Expect(err).NotTo(HaveOccurred())

		var dep appsv1.Deployment
		name := safeName("pwn-101")
		Expect(d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: name}, &dep)).To(Succeed())
		Expect(*dep.Spec.Replicas).To(Equal(int32(2)))
		Expect(dep.Spec.Template.Spec.Containers[0].Image).To(Equal("registry.local/pwn-101:latest"))

		var svc corev1.Service
		Expect(d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: name + "-service"}, &svc)).To(Succeed())
		Expect(svc.Spec.Type).To(Equal(corev1.ServiceTypeNodePort))
	})

	It("defaults Replicas to 1 when the spec leaves it at zero", func() {
		target := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 9001}}
		_, err := d.Deploy(ctx, "zero-replicas", yamlshape.TargetAdmin, target, "registry.local/zero-replicas:latest")
		Expect(err).NotTo(HaveOccurred())

		var dep appsv1.Deployment
		Expect(d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: safeName("zero-replicas")}, &dep)).To(Succeed())
		Expect(*dep.Spec.Replicas).To(Equal(int32(1)))
	})

	It("is idempotent when called twice with an unchanged spec", func() {
		target := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 1337}, Replicas: 1}
		_, err := d.Deploy(ctx, "rev-1", yamlshape.TargetNc, target, "registry.local/rev-1:latest")
		Expect(err).NotTo(HaveOccurred())
		_, err = d.Deploy(ctx, "rev-1", yamlshape.TargetNc, target, "registry.local/rev-1:latest")
		Expect(err).NotTo(HaveOccurred())
	})

	It("updates the Deployment replica count when the spec changes", func() {
		name := safeName("rescale")
		first := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 80}, Replicas: 1}
		_, err := d.Deploy(ctx, "rescale", yamlshape.TargetWeb, first, "registry.local/rescale:latest")
		Expect(err).NotTo(HaveOccurred())

		second := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 80}, Replicas: 5}
		_, err = d.Deploy(ctx, "rescale", yamlshape.TargetWeb, second, "registry.local/rescale:latest")
		Expect(err).NotTo(HaveOccurred())

		var dep appsv1.Deployment
		Expect(d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: name}, &dep)).To(Succeed())
		Expect(*dep.Spec.Replicas).To(Equal(int32(5)))
	})
})

var _ = Describe("K8sDeployer.Delete", func() {
	var (
		ctx context.Context
		d   *K8sDeployer
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = newFakeDeployer()
	})

	It("warns instead of failing when nothing was ever deployed", func() {
		warnings, err := d.Delete(ctx, "never-deployed", yamlshape.TargetWeb)
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(HaveLen(2))
	})

	It("removes an existing Deployment and Service without warnings", func() {
		target := yamlshape.DeployTarget{Expose: yamlshape.Expose{Port: 80}}
		_, err := d.Deploy(ctx, "web-chall", yamlshape.TargetWeb, target, "registry.local/web-chall:latest")
		Expect(err).NotTo(HaveOccurred())

		warnings, err := d.Delete(ctx, "web-chall", yamlshape.TargetWeb)
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(BeEmpty())

		var dep appsv1.Deployment
		name := safeName("web-chall")
		err = d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: name}, &dep)
		Expect(err).To(HaveOccurred())

		var svc corev1.Service
		err = d.Client.Get(ctx, client.ObjectKey{Namespace: d.Namespace, Name: name + "-service"}, &svc)
		Expect(err).To(HaveOccurred())
	})
})
