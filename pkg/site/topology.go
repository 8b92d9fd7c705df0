package site

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/graph"
)

// CloudFrontHostedZoneID is the Route 53 hosted zone id AWS assigns to every
// CloudFront distribution for alias records. It is a platform constant, not
// the id of the zone the record lives in.
const CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

const (
	DefaultRootObject = "index.html"
	ReadObjectAction  = "s3:GetObject"
	AliasRecordType   = "A"
)

// Node ids double as construct ids inside the stack.
const (
	BucketID       = "Bucket"
	DeploymentID   = "BucketDeployment"
	IdentityID     = "OriginAccessIdentity"
	PolicyID       = "BucketPolicy"
	DistributionID = "Distribution"
	RecordID       = "ARecord"

	CertificateID = "DomainCertificate"
)

var ErrAssetDirMissing = errors.New("site: asset directory missing")

// Topology returns the resource graph every website stack declares.
func Topology() *graph.Graph {
	g := graph.New()
	g.MustAdd(BucketID, graph.KindStorageBucket)
	g.MustAdd(DeploymentID, graph.KindContentDeploy, BucketID)
	g.MustAdd(IdentityID, graph.KindAccessIdentity)
	g.MustAdd(PolicyID, graph.KindPolicyBinding, BucketID, IdentityID)
	g.MustAdd(DistributionID, graph.KindEdgeDistribution, BucketID, IdentityID)
	g.MustAdd(RecordID, graph.KindDNSAliasRecord, DistributionID)
	return g
}

// CheckAssetDir reports whether path names an existing directory.
func CheckAssetDir(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: path is empty", ErrAssetDirMissing)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAssetDirMissing, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrAssetDirMissing, path)
	}
	return nil
}
