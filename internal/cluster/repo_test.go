package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoCredentialsFor(t *testing.T) {
	tests := []struct {
		topology  Topology
		url       string
		admin     string
		validator string
	}{
		{TopologyOpenSource, "https://chef.example.com", "admin", "chef-validator"},
		{TopologyStandalone, "https://chef.example.com/organizations/ponyville", "rainbowdash", "ponyville-validator"},
		{TopologyTier, "https://chef.example.com/organizations/ponyville", "rainbowdash", "ponyville-validator"},
		{"sharded", "https://chef.example.com/organizations/ponyville", "rainbowdash", "ponyville-validator"},
	}
	for _, tt := range tests {
		t.Run(string(tt.topology), func(t *testing.T) {
			creds := RepoCredentialsFor("chef.example.com", tt.topology)
			assert.Equal(t, tt.url, creds.ServerURL)
			assert.Equal(t, tt.admin, creds.AdminName)
			assert.Equal(t, tt.validator, creds.ValidatorName)
			assert.Equal(t, tt.validator+".pem", creds.ValidatorKey())
			assert.Equal(t, tt.admin+".pem", creds.AdminKey())
		})
	}
}

func TestRenderRepo_OpenSource(t *testing.T) {
	c := mustCluster(t, `
chef-server:
  topology: open-source
  api_fqdn: chef.example.com
  servers:
    chef: {}
`)
	art, err := c.RenderRepo()
	require.NoError(t, err)

	want := `
current_dir = File.dirname(__FILE__)

chef_server_url "https://chef.example.com"

node_name "admin"
client_key "#{current_dir}/admin.pem"

validation_client_name "chef-validator"
validation_key "#{current_dir}/chef-validator.pem"

cookbook_path Dir.pwd + "/cookbooks"
knife[:chef_repo_path] = Dir.pwd
`
	assert.Equal(t, want, art.KnifeConfig)
	assert.Contains(t, art.BootstrapScript, "xc-chef-config -s https://chef.example.com \\\n")
	assert.Contains(t, art.BootstrapScript, "-u chef-validator \\\n")
	assert.Contains(t, art.BootstrapScript, "-k ./chef-repo/.chef/chef-validator.pem\n")
}

func TestRenderRepo_BootstrapScript(t *testing.T) {
	c := mustCluster(t, tierConfig)

	art, err := c.RenderRepo()
	require.NoError(t, err)

	want := `#!/bin/bash

if [[ -z $1 ]]; then
  echo "Please provide the name of the node to be bootstrapped"
  exit 1
fi

xc-start $1

xc-chef-config -s https://chef.example.com/organizations/ponyville \
               -u ponyville-validator \
               -k ./chef-repo/.chef/ponyville-validator.pem

if [[ -n $2 ]]; then
  xc-attach chef-client -r $2
else
  xc-attach chef-client
fi
`
	assert.Equal(t, want, art.BootstrapScript)
	assert.Contains(t, art.KnifeConfig, `node_name "rainbowdash"`)
	assert.Equal(t, "ponyville-validator", art.Credentials.ValidatorName)
}

func TestRenderRepo_NoBackend(t *testing.T) {
	c := mustCluster(t, `
chef-server:
  topology: tier
  api_fqdn: chef.example.com
  servers:
    fe1:
      role: frontend
`)
	_, err := c.RenderRepo()
	assert.ErrorIs(t, err, ErrNoBootstrapBackend)
}

func TestRenderRepo_NoChefServer(t *testing.T) {
	c := mustCluster(t, `
analytics:
  topology: standalone
  analytics_fqdn: analytics.example.com
  servers:
    a1: {}
`)
	_, err := c.RenderRepo()
	assert.ErrorIs(t, err, ErrServiceNotDefined)
}
