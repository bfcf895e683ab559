package cronjob

import (
	"github.com/fallwind/s-node/service"
)

// TunnelJob watches the quick tunnel hostname. Cloudflare reassigns
// quick tunnel hostnames occasionally; a change only needs the
// subscription rewritten, not a restart.
type TunnelJob struct {
	provision *service.ProvisionService
}

func NewTunnelJob(provision *service.ProvisionService) *TunnelJob {
	return &TunnelJob{
		provision: provision,
	}
}

func (t *TunnelJob) Run() {
	t.provision.RefreshTunnelDomain()
}
