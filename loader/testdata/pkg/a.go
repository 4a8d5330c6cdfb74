package pkg

func A() {}
