package rate

import "context"

// Pair aplica dos limiters independientes (uno por email, otro por IP) con
// semántica AND: la request pasa solo si ambos contadores quedan bajo el
// máximo. Ambos se incrementan siempre, incluso cuando uno ya rechazó, para
// que un atacante no descuente solo uno de los dos presupuestos.
type Pair struct {
	ByEmail Limiter
	ByIP    Limiter
}

// Allow devuelve el Result más restrictivo de los dos.
func (p Pair) Allow(ctx context.Context, email, ip string) (Result, error) {
	emailRes, err := p.ByEmail.Allow(ctx, "email:"+email)
	if err != nil {
		return Result{}, err
	}
	ipRes, err := p.ByIP.Allow(ctx, "ip:"+ip)
	if err != nil {
		return Result{}, err
	}

	if !emailRes.Allowed && !ipRes.Allowed {
		if emailRes.RetryAfter >= ipRes.RetryAfter {
			return emailRes, nil
		}
		return ipRes, nil
	}
	if !emailRes.Allowed {
		return emailRes, nil
	}
	if !ipRes.Allowed {
		return ipRes, nil
	}
	if emailRes.Remaining <= ipRes.Remaining {
		return emailRes, nil
	}
	return ipRes, nil
}
