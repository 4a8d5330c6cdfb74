package bad

//pyglue:pymodule
func bad(py Python, m *Module) error { return nil }

//pyglue:pyfn(m, "ok")
func ok() {}

//pyglue:pyfn(m, "broken")
func broken(int64) {}
