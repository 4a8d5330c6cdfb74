package mymod

//pyglue:pyfn(m, "ignored")
func ignored() {}
