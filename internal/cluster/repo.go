package cluster

import (
	"bytes"
	"fmt"
	"text/template"
)

// RepoOrganization is the organization non open-source chef-servers are
// bootstrapped with.
const RepoOrganization = "ponyville"

// Paths of the generated chef-repo files, relative to the repo's base dir.
const (
	RepoDotChefDir      = "chef-repo/.chef"
	RepoKnifeConfig     = "chef-repo/.chef/knife.rb"
	RepoBootstrapScript = "bootstrap-node"
)

// RemoteDotChefDir is where the bootstrap backend keeps the pem files the
// repo needs.
const RemoteDotChefDir = "/root/chef-repo/.chef"

// RepoCredentials names the chef-server URL and the two clients a chef-repo
// authenticates as.
type RepoCredentials struct {
	ServerURL     string
	AdminName     string
	ValidatorName string
}

// AdminKey is the pem filename of the admin client.
func (c RepoCredentials) AdminKey() string { return c.AdminName + ".pem" }

// ValidatorKey is the pem filename of the validator client.
func (c RepoCredentials) ValidatorKey() string { return c.ValidatorName + ".pem" }

// RepoCredentialsFor picks the credential convention for a chef-server:
// open-source servers use the built-in admin and chef-validator clients,
// every other topology uses the ponyville organization.
func RepoCredentialsFor(fqdn string, topology Topology) RepoCredentials {
	if topology == TopologyOpenSource {
		return RepoCredentials{
			ServerURL:     "https://" + fqdn,
			AdminName:     "admin",
			ValidatorName: "chef-validator",
		}
	}
	return RepoCredentials{
		ServerURL:     fmt.Sprintf("https://%s/organizations/%s", fqdn, RepoOrganization),
		AdminName:     "rainbowdash",
		ValidatorName: RepoOrganization + "-validator",
	}
}

// RepoArtifacts is the rendered text of a chef-repo bootstrap.
type RepoArtifacts struct {
	Credentials     RepoCredentials
	KnifeConfig     string
	BootstrapScript string
}

// RenderRepo renders knife.rb and the bootstrap-node script for the
// cluster's chef-server. It fails when no chef-server bootstrap backend is
// resolved since the repo would have nothing to talk to.
func (c *Cluster) RenderRepo() (*RepoArtifacts, error) {
	svc, err := c.Service(ServiceChefServer)
	if err != nil {
		return nil, err
	}
	if !svc.HasBootstrapBackend() {
		return nil, fmt.Errorf("%s: %w", svc.Kind, ErrNoBootstrapBackend)
	}

	creds := RepoCredentialsFor(svc.FQDN, svc.Topology)

	knife, err := renderTemplate(knifeTemplate, creds)
	if err != nil {
		return nil, fmt.Errorf("render knife.rb: %w", err)
	}

	script, err := renderTemplate(bootstrapNodeTemplate, struct {
		RepoCredentials
		KeyDir string
	}{creds, "./" + RepoDotChefDir})
	if err != nil {
		return nil, fmt.Errorf("render bootstrap-node: %w", err)
	}

	return &RepoArtifacts{
		Credentials:     creds,
		KnifeConfig:     knife,
		BootstrapScript: script,
	}, nil
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var knifeTemplate = template.Must(template.New("knife").Parse(`
current_dir = File.dirname(__FILE__)

chef_server_url "{{ .ServerURL }}"

node_name "{{ .AdminName }}"
client_key "#{current_dir}/{{ .AdminKey }}"

validation_client_name "{{ .ValidatorName }}"
validation_key "#{current_dir}/{{ .ValidatorKey }}"

cookbook_path Dir.pwd + "/cookbooks"
knife[:chef_repo_path] = Dir.pwd
`))

var bootstrapNodeTemplate = template.Must(template.New("bootstrap-node").Parse(`#!/bin/bash

if [[ -z $1 ]]; then
  echo "Please provide the name of the node to be bootstrapped"
  exit 1
fi

xc-start $1

xc-chef-config -s {{ .ServerURL }} \
               -u {{ .ValidatorName }} \
               -k {{ .KeyDir }}/{{ .ValidatorKey }}

if [[ -n $2 ]]; then
  xc-attach chef-client -r $2
else
  xc-attach chef-client
fi
`))
