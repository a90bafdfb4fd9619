package container

// Instantiate resolves each scanned name against catalog, constructs the
// marked components and registers them.
//
//   - controllers register under their lower-first simple name
//   - services register under their label, or the lower-first simple name,
//     and are then bound under every declared capability
//   - unmarked types are ignored
//
// Resolution and construction failures are logged and skipped. Name
// conflicts (DuplicateBeanError) and capabilities satisfied twice
// (DuplicateBindingError) abort and are returned.
func (c *Container) Instantiate(catalog *Catalog, names []string) error {
	for _, name := range names {
		d, err := catalog.Resolve(name)
		if err != nil {
			c.warn(err)
			continue
		}
		if !d.IsController() && !d.IsService() {
			c.logger.Debugf("[container]%s carries no component marker, ignored", name)
			continue
		}

		instance, err := d.New()
		if err != nil {
			c.warn(&InstantiationError{Name: name, Err: err})
			continue
		}

		if err := c.add(d, instance); err != nil {
			c.logger.Errorf("[container]%v", err)
			return err
		}
	}
	return nil
}

func (c *Container) add(d *Descriptor, instance any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	beanName := d.BeanName()
	bean, err := c.register(beanName, instance, d)
	if err != nil {
		return err
	}
	c.logger.Debugf("[container]registered %q -> %s", beanName, d.Name())

	if d.IsController() {
		return nil
	}
	for _, capability := range d.Capabilities() {
		if err := c.bindCapability(capability, bean); err != nil {
			return err
		}
		c.logger.Debugf("[container]bound capability %s -> %q", QualifiedName(capability), beanName)
	}
	return nil
}
